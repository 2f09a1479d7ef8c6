// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry maps session identifiers to controllers. Sessions live in memory
// only and expire after an idle period.
type Registry struct {
	newController func() *Controller
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// NewRegistry returns a registry that creates controllers with factory.
func NewRegistry(factory func() *Controller) *Registry {
	return &Registry{
		newController: factory,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// Get returns the controller for id, creating a session with a fresh
// identifier when id is unknown or not a UUID. The returned id is the one
// the caller should keep.
func (r *Registry) Get(id string) (*Controller, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if _, err := uuid.Parse(id); err == nil {
		if s, ok := r.sessions[id]; ok {
			s.lastSeen = now
			return s.ctrl, id
		}
	}

	id = uuid.NewString()
	s := &session{ctrl: r.newController(), lastSeen: now}
	r.sessions[id] = s
	return s.ctrl, id
}

// Sweep drops sessions idle for longer than idle and returns how many were
// removed. Sessions with a query in flight are kept.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) && !s.ctrl.Snapshot().Loading {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
