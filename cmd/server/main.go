package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/posync/internal/bootstrap"
	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/infrastructure/config"
	"github.com/erp/posync/internal/infrastructure/logger"
	"github.com/erp/posync/internal/infrastructure/scheduler"
	"github.com/erp/posync/internal/interfaces/http/handler"
	"github.com/erp/posync/internal/interfaces/http/middleware"
	"github.com/erp/posync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting posync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{Version: version})
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}()

	// Inbox polling feeds exports dropped into a directory through the same importers
	var (
		jobs   *scheduler.Scheduler
		poller *scheduler.InboxPoller
	)
	if cfg.Inbox.Enabled {
		executor := scheduler.NewImportExecutor(cfg.Import.Actor, log.Named("inbox")).
			Register(bulk.ImportEntityPurchaseOrders, app.PurchaseOrderImports).
			Register(bulk.ImportEntityLineItems, app.LineItemImports)

		jobCfg := scheduler.DefaultSchedulerConfig()
		// an import cannot outlive its lock
		jobCfg.JobTimeout = cfg.Import.LockTTL
		jobs, err = scheduler.NewScheduler(jobCfg, executor, log.Named("scheduler"))
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		poller = scheduler.NewInboxPoller(scheduler.NewInboxPollerConfig(cfg.Inbox), jobs, log.Named("inbox"))
		if err := poller.Start(ctx); err != nil {
			log.Fatal("Failed to start inbox poller", zap.Error(err))
		}
		log.Info("Inbox polling enabled",
			zap.String("dir", cfg.Inbox.Dir),
			zap.Duration("interval", cfg.Inbox.PollInterval),
		)
	}

	// Set Gin mode
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.Secure())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: app.Meter,
		Enabled:       cfg.Telemetry.MetricsEnabled,
		Logger:        log,
	}))

	router.RegisterAPI(engine, router.Handlers{
		Imports:        handler.NewImportHandler(app.PurchaseOrderImports, app.LineItemImports),
		History:        handler.NewImportHistoryHandler(app.History),
		PurchaseOrders: handler.NewPurchaseOrderHandler(app.PurchaseOrders),
		Notes:          handler.NewNoteHandler(app.Notes),
		Health:         handler.NewHealthHandler(app.DB, app.History, version),
	}, cfg.Import.MaxFileSize)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if poller != nil {
		if err := poller.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping inbox poller", zap.Error(err))
		}
	}
	if jobs != nil {
		// files still queued stay in the inbox for the next start
		if err := jobs.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
