// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/philquery/pkg/types"
)

// fakeAsker answers with the query echoed back. When gate is set each call
// blocks until it is closed.
type fakeAsker struct {
	mu    sync.Mutex
	calls []call
	err   error
	gate  chan struct{}
	start chan struct{}
}

type call struct {
	query      string
	chunkCount int
	mode       types.QueryMode
}

func (f *fakeAsker) Ask(_ context.Context, query string, chunkCount int, mode types.QueryMode) (types.QueryResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{query, chunkCount, mode})
	f.mu.Unlock()
	if f.start != nil {
		f.start <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return types.QueryResult{}, f.err
	}
	return types.QueryResult{Query: query, Mode: mode, Answer: "answer to " + query}, nil
}

func TestNewControllerDefaults(t *testing.T) {
	s := NewController(&fakeAsker{}, types.QueryDefaults{}, nil).Snapshot()
	assert.Equal(t, types.ModeUnderstanding, s.Mode)
	assert.Equal(t, types.DefaultChunkCount, s.ChunkCount)
	assert.False(t, s.Loading)
	assert.Nil(t, s.Result)
	assert.Empty(t, s.Error)

	s = NewController(&fakeAsker{}, types.QueryDefaults{Mode: types.ModeRetrieval, ChunkCount: 40}, nil).Snapshot()
	assert.Equal(t, types.ModeRetrieval, s.Mode)
	assert.Equal(t, types.MaxChunkCount, s.ChunkCount)
}

func TestSetModeAndChunkCount(t *testing.T) {
	c := NewController(&fakeAsker{}, types.QueryDefaults{}, nil)

	require.NoError(t, c.SetMode(types.ModeRetrieval))
	assert.ErrorIs(t, c.SetMode("bogus"), types.ErrInvalidMode)
	assert.Equal(t, types.ModeRetrieval, c.Snapshot().Mode)

	assert.Equal(t, 1, c.SetChunkCount(0))
	assert.Equal(t, 10, c.SetChunkCount(99))
	assert.Equal(t, 4, c.SetChunkCount(4))
	assert.Equal(t, 4, c.Snapshot().ChunkCount)
}

func TestSubmitSuccess(t *testing.T) {
	asker := &fakeAsker{}
	c := NewController(asker, types.QueryDefaults{Mode: types.ModeRetrieval, ChunkCount: 3}, nil)

	require.NoError(t, c.Submit(context.Background(), "  What is justice?  "))

	s := c.Snapshot()
	require.NotNil(t, s.Result)
	assert.Equal(t, "What is justice?", s.Result.Query)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Equal(t, []call{{"What is justice?", 3, types.ModeRetrieval}}, asker.calls)
}

func TestSubmitBlankIsNoop(t *testing.T) {
	asker := &fakeAsker{}
	c := NewController(asker, types.QueryDefaults{}, nil)

	for _, q := range []string{"", "   ", "\n"} {
		assert.NoError(t, c.Submit(context.Background(), q))
	}
	assert.Empty(t, asker.calls)
	assert.Nil(t, c.Snapshot().Result)
}

func TestSubmitFailureClearsResult(t *testing.T) {
	asker := &fakeAsker{}
	c := NewController(asker, types.QueryDefaults{}, nil)
	require.NoError(t, c.Submit(context.Background(), "first"))
	require.NotNil(t, c.Snapshot().Result)

	asker.err = errors.New("connection refused")
	err := c.Submit(context.Background(), "second")
	assert.Error(t, err)

	s := c.Snapshot()
	assert.Nil(t, s.Result)
	assert.Equal(t, GenericFailureMessage, s.Error)
	assert.False(t, s.Loading)
}

func TestSubmitClearsPreviousErrorOnStart(t *testing.T) {
	asker := &fakeAsker{err: errors.New("down")}
	c := NewController(asker, types.QueryDefaults{}, nil)
	_ = c.Submit(context.Background(), "q")
	require.Equal(t, GenericFailureMessage, c.Snapshot().Error)

	asker.err = nil
	require.NoError(t, c.Submit(context.Background(), "q"))
	assert.Empty(t, c.Snapshot().Error)
}

func TestSubmitWhileLoadingIsBusy(t *testing.T) {
	asker := &fakeAsker{gate: make(chan struct{}), start: make(chan struct{})}
	c := NewController(asker, types.QueryDefaults{}, nil)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "slow") }()
	<-asker.start

	assert.True(t, c.Snapshot().Loading)
	assert.ErrorIs(t, c.Submit(context.Background(), "again"), ErrBusy)

	close(asker.gate)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("submit did not return")
	}
	assert.False(t, c.Snapshot().Loading)
	assert.Len(t, asker.calls, 1)
}

func TestModeCapturedAtSubmit(t *testing.T) {
	asker := &fakeAsker{gate: make(chan struct{}), start: make(chan struct{})}
	c := NewController(asker, types.QueryDefaults{Mode: types.ModeUnderstanding}, nil)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "q") }()
	<-asker.start

	require.NoError(t, c.SetMode(types.ModeRetrieval))
	close(asker.gate)
	require.NoError(t, <-done)

	s := c.Snapshot()
	assert.Equal(t, types.ModeRetrieval, s.Mode)
	require.NotNil(t, s.Result)
	assert.Equal(t, types.ModeUnderstanding, s.Result.Mode)
}

func TestReset(t *testing.T) {
	c := NewController(&fakeAsker{}, types.QueryDefaults{Mode: types.ModeRetrieval, ChunkCount: 2}, nil)
	require.NoError(t, c.Submit(context.Background(), "q"))

	c.Reset()
	s := c.Snapshot()
	assert.Nil(t, s.Result)
	assert.Empty(t, s.Error)
	assert.Equal(t, types.ModeRetrieval, s.Mode)
	assert.Equal(t, 2, s.ChunkCount)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewController(&fakeAsker{}, types.QueryDefaults{}, nil)
	require.NoError(t, c.Submit(context.Background(), "q"))

	s := c.Snapshot()
	s.Result.Answer = "mutated"
	assert.Equal(t, "answer to q", c.Snapshot().Result.Answer)
}
