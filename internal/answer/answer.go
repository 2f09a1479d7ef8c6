// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package answer joins the two text pipelines for one query cycle: the
// backend's answer is formatted for the mode it ran in and its citation
// payload is parsed into records.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/philquery/internal/backend"
	"github.com/pdiddy/philquery/internal/citations"
	"github.com/pdiddy/philquery/internal/format"
	"github.com/pdiddy/philquery/internal/metrics"
	"github.com/pdiddy/philquery/pkg/types"
)

// Assemble builds the result of a completed query.
func Assemble(query string, mode types.QueryMode, ans backend.Answer) types.QueryResult {
	return types.QueryResult{
		Query:       query,
		Mode:        mode,
		Answer:      ans.Text,
		Markup:      string(format.Format(ans.Text, mode)),
		Sources:     citations.Parse(ans.Citations),
		CompletedAt: time.Now().UTC(),
	}
}

// Asker submits a question to the backend.
type Asker interface {
	AskQuestion(ctx context.Context, query string, chunkCount int, mode types.QueryMode) (backend.Answer, error)
}

// Service runs query cycles against an Asker, recording metrics and logs.
type Service struct {
	asker   Asker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService returns a Service. m and logger may be nil.
func NewService(asker Asker, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{asker: asker, metrics: m, logger: logger.Named("answer")}
}

// Ask submits query and assembles the result. The query is trimmed before
// submission; an empty query is rejected without calling the backend.
func (s *Service) Ask(ctx context.Context, query string, chunkCount int, mode types.QueryMode) (types.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.QueryResult{}, ErrEmptyQuery
	}

	start := time.Now()
	ans, err := s.asker.AskQuestion(ctx, query, chunkCount, mode)
	elapsed := time.Since(start)

	if err != nil {
		s.observe(mode, metrics.OutcomeError, elapsed)
		s.logger.Warn("query failed",
			zap.String("mode", string(mode)),
			zap.Int("chunk_count", chunkCount),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return types.QueryResult{}, fmt.Errorf("asking backend: %w", err)
	}

	result := Assemble(query, mode, ans)
	s.observe(mode, metrics.OutcomeOK, elapsed)
	if s.metrics != nil {
		s.metrics.CitationsTotal.WithLabelValues(ans.Citations.Kind.String()).Inc()
		s.metrics.CitationsPerQuery.Observe(float64(len(result.Sources)))
	}
	s.logger.Info("query answered",
		zap.String("mode", string(mode)),
		zap.Int("chunk_count", chunkCount),
		zap.Int("sources", len(result.Sources)),
		zap.Stringer("citation_encoding", ans.Citations.Kind),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *Service) observe(mode types.QueryMode, outcome string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.QueriesTotal.WithLabelValues(string(mode), outcome).Inc()
	s.metrics.QueryDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}
