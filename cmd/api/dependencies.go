package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/exporter"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/handler"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/parser"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/repository"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/service"
	"github.com/FACorreiaa/sig-activa/pkg/config"
	"github.com/FACorreiaa/sig-activa/pkg/cron"
	"github.com/FACorreiaa/sig-activa/pkg/db"
	"github.com/FACorreiaa/sig-activa/pkg/interceptors"
	"github.com/FACorreiaa/sig-activa/pkg/observability"
	"github.com/FACorreiaa/sig-activa/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Repositories
	RunRepo repository.RunRepository

	// Services
	FileStorage        storage.Storage
	FluctuationService *service.Service
	Scheduler          *cron.Scheduler
	Verifier           *interceptors.TokenVerifier

	// Handlers
	FluctuationHandler *handler.FluctuationHandler
	HTTPHandler        *handler.HTTPHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: observability.NewRegistry(),
	}
	deps.Metrics = observability.NewMetrics(deps.Registry)

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully",
		slog.Bool("run_history", deps.RunRepo != nil),
		slog.Bool("auth", deps.Verifier != nil),
	)

	return deps, nil
}

// initDatabase connects and migrates when run history is enabled
func (d *Dependencies) initDatabase(ctx context.Context) error {
	if !d.Config.Database.Enabled {
		d.Logger.Info("database disabled, run history is off")
		return nil
	}

	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(ctx); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() {
	if d.DB == nil {
		return
	}
	d.RunRepo = repository.NewPostgresRunRepository(d.DB.Pool)
	d.Logger.Info("repositories initialized")
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	fc := d.Config.Fluctuation

	var store storage.Storage
	if d.RunRepo != nil {
		local, err := storage.NewLocalStorage(d.Config.Storage.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to init file storage: %w", err)
		}
		store = local
		d.FileStorage = local
	}

	popts := parser.DefaultOptions()
	popts.DetailSampleRows = fc.DetailSampleRows
	popts.AmountSampleRows = fc.AmountSampleRows
	popts.AccountSampleRows = fc.AccountSampleRows
	popts.AmountDensity = fc.AmountDensity
	popts.YoYStrategy = parser.YoYStrategy(fc.YoYStrategy)

	d.FluctuationService = service.NewService(d.RunRepo, store, service.Config{
		Parser:   popts,
		Exporter: exporter.Options{YearThreshold: fc.YearThreshold},
		Metrics:  d.Metrics,
	}, d.Logger)

	if d.RunRepo != nil {
		d.Scheduler = cron.NewScheduler(d.FluctuationService, cron.RetentionPolicy{
			Spec: d.Config.Storage.RetentionCron,
			Days: d.Config.Storage.RetentionDays,
		}, d.Logger)
	}

	if d.Config.Auth.Enabled {
		d.Verifier = interceptors.NewTokenVerifier(d.Config.Auth.JWTSecret, d.Config.Auth.Issuer)
	}

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	maxUpload := d.Config.Server.MaxUploadBytes()
	d.FluctuationHandler = handler.NewFluctuationHandler(d.FluctuationService, maxUpload)
	d.HTTPHandler = handler.NewHTTPHandler(d.FluctuationService, maxUpload, d.Logger)
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
