// Package bootstrap wires the posync services from configuration. The HTTP
// server and the command line tool share it.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	importapp "github.com/erp/posync/internal/application/import"
	purchasingapp "github.com/erp/posync/internal/application/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/erp/posync/internal/infrastructure/cache"
	"github.com/erp/posync/internal/infrastructure/config"
	"github.com/erp/posync/internal/infrastructure/event"
	"github.com/erp/posync/internal/infrastructure/logger"
	"github.com/erp/posync/internal/infrastructure/migration"
	"github.com/erp/posync/internal/infrastructure/persistence"
	"github.com/erp/posync/internal/infrastructure/storage"
	"github.com/erp/posync/internal/infrastructure/telemetry"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// App holds the wired services
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *persistence.Database
	Meter    *telemetry.MeterProvider
	EventBus *event.InMemoryEventBus
	Lock     shared.ImportLock

	PurchaseOrderImports *importapp.PurchaseOrderImportService
	LineItemImports      *importapp.LineItemImportService
	History              *importapp.ImportHistoryService
	PurchaseOrders       *purchasingapp.PurchaseOrderService
	Notes                *purchasingapp.NoteTimelineService
}

// Options tune New
type Options struct {
	// Version is reported as the telemetry service version.
	Version string
	// SkipMigrations leaves the postgres schema alone.
	SkipMigrations bool
}

// New connects to the database, applies the schema and builds every service.
// Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	app := &App{Config: cfg, Logger: log}

	if cfg.Database.Driver != "sqlite" && !opts.SkipMigrations {
		if err := MigrateUp(&cfg.Database, log); err != nil {
			return nil, err
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}
	app.DB = db
	log.Info("Database connected", zap.String("driver", db.Driver()))

	app.Meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    opts.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	importMetrics, err := telemetry.NewImportMetrics(app.Meter.Meter("posync/import"))
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	app.Lock, err = cache.NewImportLockFactory(cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	archive, err := storage.NewExportArchive(ctx, cfg.Storage, log)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("failed to initialize export archive: %w", err)
	}

	app.EventBus = event.NewInMemoryEventBus(log)
	app.EventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := app.EventBus.Start(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	app.wire(importMetrics, archive)
	return app, nil
}

func (a *App) wire(metrics importapp.BatchMetrics, archive importapp.ExportArchive) {
	cfg := a.Config
	db := a.DB.DB

	orderRepo := persistence.NewGormPurchaseOrderRepository(db)
	lineItemRepo := persistence.NewGormLineItemRepository(db)
	noteRepo := persistence.NewGormNoteRepository(db)
	historyRepo := persistence.NewGormImportHistoryRepository(db)
	txScope := persistence.NewGormTransactionScope(db)

	opts := importapp.ImportOptions{
		Actor:       cfg.Import.Actor,
		MaxFileSize: cfg.Import.MaxFileSize,
		MaxErrors:   cfg.Import.MaxErrors,
		LockTTL:     cfg.Import.LockTTL,
	}

	a.PurchaseOrderImports = importapp.NewPurchaseOrderImportService(
		orderRepo, historyRepo, a.Lock, cfg.Import.POLayout(), opts, a.Logger.Named("import.po"))
	a.PurchaseOrderImports.SetEventPublisher(a.EventBus)
	a.PurchaseOrderImports.SetArchive(archive)
	a.PurchaseOrderImports.SetMetrics(metrics)

	a.LineItemImports = importapp.NewLineItemImportService(
		orderRepo, lineItemRepo, historyRepo, a.Lock, cfg.Import.LineItemLayout(), opts, a.Logger.Named("import.line_items"))
	a.LineItemImports.SetArchive(archive)
	a.LineItemImports.SetMetrics(metrics)

	a.History = importapp.NewImportHistoryService(historyRepo)

	tracker := purchasingapp.NewChangeTracker(a.Logger)
	tracker.SetLocation(cfg.Import.Location())
	a.PurchaseOrders = purchasingapp.NewPurchaseOrderService(orderRepo, lineItemRepo, txScope, tracker, a.Logger)
	a.PurchaseOrders.SetEventPublisher(a.EventBus)

	a.Notes = purchasingapp.NewNoteTimelineService(orderRepo, noteRepo, txScope, a.Logger)
}

// Close stops the event bus, flushes metrics and closes the lock backend
// and the database. It is safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.EventBus != nil {
		errs = append(errs, a.EventBus.Stop(ctx))
	}
	if a.Meter != nil {
		errs = append(errs, a.Meter.Shutdown(ctx))
	}
	if c, ok := a.Lock.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// MigrateUp applies the embedded migrations to a postgres database. The
// migrator owns its connection and closes it when done.
func MigrateUp(cfg *config.DatabaseConfig, log *zap.Logger) error {
	m, err := OpenMigrator(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

// OpenMigrator opens a dedicated postgres connection for golang-migrate
func OpenMigrator(cfg *config.DatabaseConfig, log *zap.Logger) (*migration.Migrator, error) {
	if cfg.Driver == "sqlite" {
		return nil, fmt.Errorf("migrations are only used with postgres; sqlite schemas are created automatically")
	}
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return m, nil
}
