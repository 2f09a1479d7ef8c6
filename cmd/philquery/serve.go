// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/philquery/internal/answer"
	"github.com/pdiddy/philquery/internal/catalog"
	"github.com/pdiddy/philquery/internal/metrics"
	"github.com/pdiddy/philquery/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question page and JSON API",
	Long: `Serve starts the HTTP front end. The index page holds the mode toggle,
question box and result view; /api/ask and /api/sources expose the same
pipeline as JSON, and /metrics exposes Prometheus metrics.

The source sidebar is served from the local catalogue and refreshed from the
backend when it is older than --catalog-max-age.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, client, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	maxAge, _ := cmd.Flags().GetDuration("catalog-max-age")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := web.NewServer(web.Deps{
		Config:   cfg.Server,
		Defaults: cfg.Query,
		Asker:    answer.NewService(client, m, logger),
		Sources:  catalog.NewCache(store, client, maxAge, m.SourcesSynced, logger),
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting philquery",
		zap.String("version", version),
		zap.String("backend", cfg.Backend.URL),
		zap.String("catalog", store.Path()),
	)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :3000)")
	serveCmd.Flags().String("feedback-url", "", "target of the Give Feedback link")
	serveCmd.Flags().Duration("catalog-max-age", catalog.DefaultMaxAge, "refresh the source catalogue when older than this")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.feedback_url", serveCmd.Flags().Lookup("feedback-url"))

	rootCmd.AddCommand(serveCmd)
}
