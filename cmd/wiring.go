package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/okian/medalist/internal/adapters/mq/worker"
	"github.com/okian/medalist/internal/adapters/repository"
	app "github.com/okian/medalist/internal/app"
	"github.com/okian/medalist/internal/config"
	"github.com/okian/medalist/internal/domain/report"
	"github.com/okian/medalist/internal/domain/validate"
	"github.com/okian/medalist/pkg/logger"
)

// bootstrap loads .env, the configuration and the global logger.
func bootstrap(ctx context.Context) (*config.Config, error) {
	if err := logger.Init("text"); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(ctx, "no .env file found, using environment variables")
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// openStore selects PostgreSQL when a database URL is configured and the
// in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Get().Info(ctx, "using in-memory store")
		return repository.Instrument(repository.NewMemoryStore()), nil
	}
	pg, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL,
		repository.WithMaxConns(cfg.DBMaxConns),
		repository.WithMinConns(cfg.DBMinConns),
		repository.WithMigrate(cfg.DBMigrate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Get().Info(ctx, "connected to database")
	return repository.Instrument(pg), nil
}

// newService builds the service from cfg without starting it.
func newService(cfg *config.Config, store repository.Store) (*app.Service, error) {
	profile, err := report.ParseProfile(cfg.ExportProfile)
	if err != nil {
		return nil, fmt.Errorf("invalid export profile: %w", err)
	}
	return app.New(
		app.WithLogger(logger.Get().Named("service")),
		app.WithStore(store),
		app.WithPool(worker.NewPool(
			worker.WithSize(cfg.WorkerCount),
			worker.WithTaskTimeout(cfg.StoreTimeout()*2),
		)),
		app.WithValidator(validate.New(validate.WithDisciplines(cfg.DisciplineSet()))),
		app.WithStoreTimeout(cfg.StoreTimeout()),
		app.WithComma(cfg.Comma()),
		app.WithExportProfile(profile),
		app.WithCriteria(cfg.MedalCriteria()),
	), nil
}

// startService opens the store, builds the service and starts it.
func startService(ctx context.Context, cfg *config.Config) (*app.Service, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := newService(cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := svc.Start(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}
