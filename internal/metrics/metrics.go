// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors for philquery. The
// collectors register on a caller-supplied registry so tests and multiple
// servers in one process do not collide.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the collectors.
type Metrics struct {
	QueriesTotal      *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	CitationsTotal    *prometheus.CounterVec
	CitationsPerQuery prometheus.Histogram
	SourcesSynced     prometheus.Gauge
	HTTPRequests      *prometheus.CounterVec
	RateLimited       prometheus.Counter
	Sessions          prometheus.Gauge
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "philquery_queries_total",
				Help: "Total number of questions submitted to the backend",
			},
			[]string{"mode", "outcome"},
		),
		QueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "philquery_query_duration_seconds",
				Help:    "Backend round trip per question in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"mode"},
		),
		CitationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "philquery_citation_payloads_total",
				Help: "Citation payloads received, by encoding",
			},
			[]string{"encoding"},
		),
		CitationsPerQuery: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "philquery_citations_per_query",
				Help:    "Citation records parsed per answer",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
			},
		),
		SourcesSynced: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "philquery_catalog_sources",
				Help: "Sources held in the local catalogue after the last sync",
			},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "philquery_http_requests_total",
				Help: "HTTP requests served, by route and status class",
			},
			[]string{"route", "code"},
		),
		RateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Name: "philquery_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter",
			},
		),
		Sessions: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "philquery_sessions",
				Help: "Live view sessions",
			},
		),
	}
}
