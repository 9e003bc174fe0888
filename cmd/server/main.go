package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmchainx/internal/config"
	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/media"
	"github.com/mamadbah2/farmchainx/internal/metrics"
	"github.com/mamadbah2/farmchainx/internal/repository/memory"
	"github.com/mamadbah2/farmchainx/internal/repository/mongodb"
	"github.com/mamadbah2/farmchainx/internal/repository/postgres"
	"github.com/mamadbah2/farmchainx/internal/repository/sheets"
	"github.com/mamadbah2/farmchainx/internal/repository/slots"
	"github.com/mamadbah2/farmchainx/internal/repository/sqlite"
	"github.com/mamadbah2/farmchainx/internal/scheduler"
	"github.com/mamadbah2/farmchainx/internal/server/handlers"
	"github.com/mamadbah2/farmchainx/internal/server/router"
	"github.com/mamadbah2/farmchainx/internal/service/dashboard"
	exportsvc "github.com/mamadbah2/farmchainx/internal/service/export"
	"github.com/mamadbah2/farmchainx/internal/service/records"
	"github.com/mamadbah2/farmchainx/internal/service/session"
	"github.com/mamadbah2/farmchainx/internal/service/visibility"
	"github.com/mamadbah2/farmchainx/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()

	store, err := openSlots(ctx, cfg)
	if err != nil {
		baseLogger.Fatal("failed to init slot storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	if closer, ok := store.(slots.Closer); ok {
		defer func() {
			if err := closer.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close slot storage", zap.Error(err))
			}
		}()
	}
	baseLogger.Info("slot storage ready", zap.String("driver", cfg.Storage.Driver))

	backend, err := openMedia(ctx, cfg)
	if err != nil {
		baseLogger.Fatal("failed to init media storage", zap.String("driver", cfg.Media.Driver), zap.Error(err))
	}

	var defaultRole models.Role
	if cfg.Session.DefaultRole != "" {
		if defaultRole, err = models.ParseRole(cfg.Session.DefaultRole); err != nil {
			baseLogger.Fatal("invalid SESSION_DEFAULT_ROLE", zap.Error(err))
		}
	}
	rule, err := visibility.ParseRule(cfg.Session.VisibilityRule)
	if err != nil {
		baseLogger.Fatal("invalid VISIBILITY_RULE", zap.Error(err))
	}

	m := metrics.New()
	sessions := session.NewManager(store, defaultRole, baseLogger.Named("svc.session"))
	auth := session.NewAuthenticator(store, sessions, baseLogger.Named("svc.auth"))
	recordStore := records.NewStore(store, baseLogger.Named("svc.records"))
	mediaSvc := media.NewService(backend, cfg.Media.MaxBytes, baseLogger.Named("svc.media"))
	controller := dashboard.NewController(sessions, recordStore, visibility.NewFilter(rule), mediaSvc, m, baseLogger.Named("svc.dashboard"))

	var exporter handlers.Exporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exportSvc := exportsvc.NewService(sheetsRepo, recordStore, m, baseLogger.Named("svc.export"))
		exporter = exportSvc

		sched, err := scheduler.NewScheduler(cfg.Export, exportSvc, baseLogger.Named("scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	} else {
		baseLogger.Warn("google sheets export not configured, export disabled")
	}

	engine := router.New(router.Handlers{
		Auth:      handlers.NewAuthHandler(auth, sessions, controller, m, baseLogger.Named("handlers.auth")),
		Products:  handlers.NewProductHandler(controller, mediaSvc, baseLogger.Named("handlers.products")),
		Dashboard: handlers.NewDashboardHandler(controller, sessions, exporter, baseLogger.Named("handlers.dashboard")),
		Metrics:   m.Handler(),
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openSlots(ctx context.Context, cfg *config.Config) (slots.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return memory.NewStore(), nil
	case config.StorageSQLite:
		return sqlite.NewStore(ctx, cfg.Storage.SQLitePath)
	case config.StorageMongoDB:
		return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	case config.StoragePostgres:
		return postgres.NewStore(ctx, cfg.Postgres.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func openMedia(ctx context.Context, cfg *config.Config) (media.Backend, error) {
	switch cfg.Media.Driver {
	case config.MediaMemory:
		return media.NewMemoryBackend(), nil
	case config.MediaMinio:
		backend, err := media.NewMinioBackend(media.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported media driver %q", cfg.Media.Driver)
	}
}
