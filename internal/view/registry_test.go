// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/philquery/pkg/types"
)

func newTestRegistry() *Registry {
	return NewRegistry(func() *Controller {
		return NewController(&fakeAsker{}, types.QueryDefaults{}, nil)
	})
}

func TestRegistryGet(t *testing.T) {
	r := newTestRegistry()

	c1, id := r.Get("")
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	c2, id2 := r.Get(id)
	assert.Same(t, c1, c2)
	assert.Equal(t, id, id2)

	c3, id3 := r.Get("not-a-uuid")
	assert.NotSame(t, c1, c3)
	assert.NotEqual(t, id, id3)

	_, id4 := r.Get(uuid.NewString())
	assert.NotEqual(t, id, id4, "unknown ids get a fresh session")
	assert.Equal(t, 3, r.Len())
}

func TestRegistrySweep(t *testing.T) {
	r := newTestRegistry()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	_, stale := r.Get("")
	now = now.Add(20 * time.Minute)
	_, fresh := r.Get("")
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.Equal(t, 1, r.Len())

	_, got := r.Get(fresh)
	assert.Equal(t, fresh, got)
	_, got = r.Get(stale)
	assert.NotEqual(t, stale, got)
}
