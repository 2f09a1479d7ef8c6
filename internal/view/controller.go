// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package view holds the per-session state behind the question page: the
// selected mode and chunk count, the in-flight flag, and the last result or
// error. A Controller allows one query in flight at a time.
package view

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/philquery/pkg/types"
)

// GenericFailureMessage is shown for any failed query. Details are logged,
// never displayed.
const GenericFailureMessage = "An error occurred while processing your query. Please try again."

// ErrBusy is returned by Submit while a previous query is still running.
var ErrBusy = errors.New("a query is already in progress")

// Asker runs one query cycle.
type Asker interface {
	Ask(ctx context.Context, query string, chunkCount int, mode types.QueryMode) (types.QueryResult, error)
}

// State is a copy of a controller's view state.
type State struct {
	Mode       types.QueryMode
	ChunkCount int
	Loading    bool
	Result     *types.QueryResult
	Error      string
}

// Controller owns one view's state. Methods are safe for concurrent use.
type Controller struct {
	asker  Asker
	logger *zap.Logger

	mu    sync.Mutex
	state State
}

// NewController returns a controller starting from defaults. Invalid
// defaults fall back to understanding mode and the default chunk count.
func NewController(asker Asker, defaults types.QueryDefaults, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := defaults.Mode
	if !mode.Valid() {
		mode = types.ModeUnderstanding
	}
	n := defaults.ChunkCount
	if n == 0 {
		n = types.DefaultChunkCount
	}
	return &Controller{
		asker:  asker,
		logger: logger,
		state:  State{Mode: mode, ChunkCount: types.ClampChunkCount(n)},
	}
}

// SetMode selects the mode for the next submission. A query already in
// flight keeps the mode it started with.
func (c *Controller) SetMode(m types.QueryMode) error {
	if !m.Valid() {
		return types.ErrInvalidMode
	}
	c.mu.Lock()
	c.state.Mode = m
	c.mu.Unlock()
	return nil
}

// SetChunkCount stores n clamped to the allowed range and returns the
// stored value.
func (c *Controller) SetChunkCount(n int) int {
	n = types.ClampChunkCount(n)
	c.mu.Lock()
	c.state.ChunkCount = n
	c.mu.Unlock()
	return n
}

// Submit runs query with the current mode and chunk count. A blank query
// is ignored. The lock is not held during the backend call; the outcome is
// applied when the call returns. On failure the previous result is cleared
// and Error holds GenericFailureMessage.
func (c *Controller) Submit(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state.Loading = true
	c.state.Error = ""
	mode, n := c.state.Mode, c.state.ChunkCount
	c.mu.Unlock()

	result, err := c.asker.Ask(ctx, query, n, mode)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		c.logger.Debug("submission failed", zap.Error(err))
		c.state.Result = nil
		c.state.Error = GenericFailureMessage
		return err
	}
	c.state.Result = &result
	return nil
}

// Reset clears the result and error. Mode and chunk count are kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state.Result = nil
	c.state.Error = ""
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}
