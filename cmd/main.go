package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/okian/medalist/internal/adapters/http/api"
	"github.com/okian/medalist/internal/adapters/http/site"
	"github.com/okian/medalist/internal/adapters/http/swagger"
	app "github.com/okian/medalist/internal/app"
	"github.com/okian/medalist/internal/config"
	"github.com/okian/medalist/pkg/logger"
	"github.com/okian/medalist/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 30 * time.Second
	writeTimeoutMargin     = 5 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // stop is called above
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "medalist",
		Short:         "Athlete and performance import service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(
		newServeCmd(),
		newImportCmd(),
		newExportCmd(),
		newLoadgenCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context) error {
	cfg, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	loggerInstance := logger.Get()

	svc, err := startService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.RequestTimeout() + writeTimeoutMargin,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// newRouter mounts the business API, the docs and the upload page.
func newRouter(ctx context.Context, cfg *config.Config, svc *app.Service) chi.Router {
	r := api.NewServer(svc,
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithRequestTimeout(cfg.RequestTimeout()),
	).Router(ctx)
	swagger.Register(ctx, r)
	site.Register(ctx, r)
	return r
}

// startServiceMetricsUpdater refreshes the record gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats, err := svc.Stats(ctx)
	if err != nil {
		logger.Get().Warn(ctx, "stats unavailable", logger.Error(err))
		return
	}
	metrics.UpdateRecordsTotal("athletes", stats.Athletes)
	metrics.UpdateRecordsTotal("performances", stats.Performances)
	metrics.UpdateCriteriaLoaded(stats.Criteria)
}
