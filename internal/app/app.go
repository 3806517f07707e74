package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-coursepack/internal/config"
	"github.com/yungbote/neurobridge-coursepack/internal/data/db"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos"
	"github.com/yungbote/neurobridge-coursepack/internal/observability"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

type Options struct {
	// Migrate runs schema auto-migration before anything else touches the DB.
	Migrate bool
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      config.Config
	Clients  Clients
	Repos    repos.Set
	Services Services
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithLogger(ctx, log, cfg, opts)
}

// NewWithLogger wires the application around an existing logger.
func NewWithLogger(ctx context.Context, log *logger.Logger, cfg config.Config, opts Options) (*App, error) {
	shutdown := observability.InitOTel(ctx, log, otelConfig(cfg))

	var metrics *observability.Metrics
	if metricsWanted(cfg) {
		metrics = observability.Init(log)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = shutdown(ctx)
		log.Sync()
		return nil, err
	}
	if opts.Migrate {
		if err := db.AutoMigrateAll(clients.DB); err != nil {
			clients.Close()
			_ = shutdown(ctx)
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	if metrics != nil {
		if sqlDB, err := clients.DB.DB(); err == nil {
			metrics.RegisterDBStats(sqlDB)
		}
	}

	reposet := wireRepos(clients.DB, log)
	serviceset := wireServices(log, cfg, clients, reposet, metrics)

	return &App{
		Log:          log,
		DB:           clients.DB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		otelShutdown: shutdown,
	}, nil
}

// FlushMetrics writes the metrics textfile when one is configured.
func (a *App) FlushMetrics() error {
	if a == nil || a.Metrics == nil || a.Cfg.Telemetry.MetricsTextfile == "" {
		return nil
	}
	return a.Metrics.WriteTextfile(a.Cfg.Telemetry.MetricsTextfile)
}

func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := a.FlushMetrics(); err != nil {
		errs = append(errs, fmt.Errorf("write metrics: %w", err))
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
		a.otelShutdown = nil
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
