// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves the question page, the JSON API and operational
// endpoints over HTTP.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/philquery/internal/metrics"
	"github.com/pdiddy/philquery/internal/view"
	"github.com/pdiddy/philquery/pkg/types"
)

//go:embed templates/*.html static/*
var assets embed.FS

// SessionCookie names the cookie carrying the view session id.
const SessionCookie = "philquery_session"

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

// Sources returns the corpus source list for the sidebar.
type Sources interface {
	Sources(ctx context.Context) ([]types.AvailableSource, error)
}

// Deps holds the collaborators of a Server.
type Deps struct {
	Config   types.ServerConfig
	Defaults types.QueryDefaults
	Asker    view.Asker
	Sources  Sources
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Server is the philquery HTTP front end.
type Server struct {
	cfg      types.ServerConfig
	defaults types.QueryDefaults
	asker    view.Asker
	sources  Sources
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger

	sessions *view.Registry
	limiter  *IPRateLimiter
	pages    *template.Template
	router   *chi.Mux
}

// NewServer wires routes and middleware.
func NewServer(d Deps) (*Server, error) {
	if d.Asker == nil {
		return nil, errors.New("web: Asker is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("web")

	pages, err := template.New("").Funcs(templateFuncs).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	defaults := d.Defaults
	if !defaults.Mode.Valid() {
		defaults.Mode = types.ModeUnderstanding
	}
	if defaults.ChunkCount == 0 {
		defaults.ChunkCount = types.DefaultChunkCount
	}
	defaults.ChunkCount = types.ClampChunkCount(defaults.ChunkCount)

	s := &Server{
		cfg:      d.Config,
		defaults: defaults,
		asker:    d.Asker,
		sources:  d.Sources,
		metrics:  d.Metrics,
		gatherer: d.Gatherer,
		logger:   logger,
		limiter:  NewIPRateLimiter(d.Config.RateLimitRPS, d.Config.RateLimitBurst),
		pages:    pages,
		router:   chi.NewRouter(),
	}
	s.sessions = view.NewRegistry(func() *view.Controller {
		return view.NewController(s.asker, defaults, logger)
	})
	if s.metrics != nil {
		s.limiter.onReject = s.metrics.RateLimited.Inc
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger, s.metrics))
	s.router.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	static, _ := fs.Sub(assets, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.router.Get("/", s.handleIndex)
	s.router.Post("/mode", s.handleMode)
	s.router.Post("/reset", s.handleReset)
	s.router.With(s.limiter.Middleware).Post("/query", s.handleQuery)

	s.router.Route("/api", func(r chi.Router) {
		r.With(s.limiter.Middleware).Post("/ask", s.handleAPIAsk)
		r.Get("/sources", s.handleAPISources)
	})

	s.router.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully. Idle sessions and rate-limit entries are swept meanwhile.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go s.sweep(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) sweep(ctx context.Context) {
	idle := s.cfg.SessionIdle
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(idle); n > 0 {
				s.logger.Debug("expired sessions", zap.Int("count", n))
			}
			s.limiter.Prune(idle)
			if s.metrics != nil {
				s.metrics.Sessions.Set(float64(s.sessions.Len()))
			}
		}
	}
}
