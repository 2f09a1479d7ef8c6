// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/philquery/internal/backend"
	"github.com/pdiddy/philquery/internal/citations"
	"github.com/pdiddy/philquery/internal/metrics"
	"github.com/pdiddy/philquery/pkg/types"
)

// stubAsker returns a canned answer or error and records its last call.
type stubAsker struct {
	answer backend.Answer
	err    error

	calls      int
	query      string
	chunkCount int
	mode       types.QueryMode
}

func (s *stubAsker) AskQuestion(_ context.Context, query string, chunkCount int, mode types.QueryMode) (backend.Answer, error) {
	s.calls++
	s.query, s.chunkCount, s.mode = query, chunkCount, mode
	return s.answer, s.err
}

func TestAssemble(t *testing.T) {
	ans := backend.Answer{
		Text:      "**Natural Law**\n\nLocke holds that reason teaches all mankind.",
		Citations: citations.FromJSON(`[{"citation_id":1,"source_title":"Second Treatise","author":"John Locke","url":"https://example.org/locke"}]`),
	}

	got := Assemble("What is natural law?", types.ModeUnderstanding, ans)

	assert.Equal(t, "What is natural law?", got.Query)
	assert.Equal(t, types.ModeUnderstanding, got.Mode)
	assert.Equal(t, ans.Text, got.Answer)
	assert.Equal(t, "<h4>Natural Law</h4>\n<p>Locke holds that reason teaches all mankind.</p>", got.Markup)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "Second Treatise", got.Sources[0].Title)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestAssembleRetrievalKeepsBoldInline(t *testing.T) {
	got := Assemble("q", types.ModeRetrieval, backend.Answer{Text: "**Natural Law**"})
	assert.Equal(t, "<p><strong>Natural Law</strong></p>", got.Markup)
	assert.NotNil(t, got.Sources)
	assert.Empty(t, got.Sources)
}

func TestServiceAsk(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	stub := &stubAsker{answer: backend.Answer{
		Text:      "Passage.",
		Citations: citations.FromReferences([]string{`[1] Leviathan by Hobbes: (Excerpt: "war")`}),
	}}
	svc := NewService(stub, m, zap.NewNop())

	got, err := svc.Ask(context.Background(), "  war of all  ", 3, types.ModeRetrieval)
	require.NoError(t, err)

	assert.Equal(t, "war of all", stub.query)
	assert.Equal(t, 3, stub.chunkCount)
	assert.Equal(t, types.ModeRetrieval, stub.mode)
	assert.Equal(t, "war of all", got.Query)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "[1] Leviathan by Hobbes", got.Sources[0].Title)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("retrieval", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CitationsTotal.WithLabelValues("bracket")))
}

func TestServiceAskError(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	boom := &backend.ServerError{Op: "ask", StatusCode: 500, Detail: "down"}
	svc := NewService(&stubAsker{err: boom}, m, nil)

	_, err := svc.Ask(context.Background(), "q", 5, types.ModeUnderstanding)
	var se *backend.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("understanding", metrics.OutcomeError)))
}

func TestServiceAskEmptyQuery(t *testing.T) {
	stub := &stubAsker{}
	svc := NewService(stub, nil, nil)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Ask(context.Background(), q, 5, types.ModeUnderstanding)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
	assert.Equal(t, 0, stub.calls)
}
