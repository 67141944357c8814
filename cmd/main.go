package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"haventory/internal/caching"
	"haventory/internal/common"
	"haventory/internal/config"
	"haventory/internal/handlers"
	"haventory/internal/jobs"
	"haventory/internal/jobs/background"
	"haventory/internal/metrics"
	"haventory/internal/middleware"
	"haventory/internal/repositories"
	"haventory/internal/services"
	"haventory/pkg/database"
	"haventory/pkg/logger"
)

const version = "0.4.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "haventory: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.ClosePool(pool, log)

	store := repositories.NewSnapshotRepo(pool, cfg.Database.SnapshotKey)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	areaRepo := repositories.NewAreaRepo(pool)

	cacheSvc := caching.NewNoopCacheService()
	if cfg.Redis.Enabled {
		cacheSvc = caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err := cacheSvc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, cache reads will fall through", "addr", cfg.Redis.Addr, "error", err)
		}
	}

	m := metrics.New()
	subscriptions := services.NewSubscriptionService(cacheSvc, m, log, services.DefaultSubscriptionBuffer)
	defer subscriptions.Close()

	inventory := services.NewInventoryService(store, subscriptions, cacheSvc, m, log, cfg.Redis.CacheTTL)
	if err := inventory.Load(ctx); err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	areas := services.NewAreaService(areaRepo, cacheSvc, cfg.Redis.CacheTTL, log)
	alerts := jobs.NewInventoryAlertService(inventory, areas, m, log)

	scheduler, err := background.NewJobScheduler(log)
	if err != nil {
		return err
	}
	if cfg.Alerts.Enabled {
		if err := scheduler.AddJob(ctx, jobs.LowStockJobName, cfg.Alerts.Interval, alerts.ScheduledLowStockCheck); err != nil {
			return err
		}
	}

	// backup stays a nil interface when object storage cannot be configured
	var backup handlers.BackupRunner
	storage, err := services.NewMinioService(cfg.Minio, cfg.Backup.Prefix, cfg.Minio.Region)
	if err != nil {
		log.Warn("object storage disabled", "endpoint", cfg.Minio.Endpoint, "error", err)
	} else {
		backupSvc := jobs.NewSnapshotBackupService(inventory, storage, cfg.Backup.PresignExpiry, m, log)
		backup = backupSvc
		if cfg.Backup.Enabled {
			if err := storage.EnsureBucket(ctx); err != nil {
				log.Warn("backup bucket unavailable", "bucket", cfg.Minio.Bucket, "error", err)
			}
			if err := scheduler.AddJob(ctx, jobs.BackupJobName, cfg.Backup.Interval, backupSvc.ScheduledBackup); err != nil {
				return err
			}
		}
	}

	e := newServer(cfg, log, handlers.Handlers{
		Health:        handlers.NewHealthHandlers(inventory, pool, cacheSvc, m, version),
		Inventory:     handlers.NewInventoryHandlers(inventory, log),
		Locations:     handlers.NewLocationHandlers(inventory, log),
		Areas:         handlers.NewAreaHandlers(areas, log),
		Subscriptions: handlers.NewSubscriptionHandlers(subscriptions, cfg.Server.EventHeartbeat, log),
		Jobs:          handlers.NewJobHandlers(backup, alerts, scheduler, log),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		return scheduler.Stop()
	})
	g.Go(func() error {
		addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
		log.Info("haventory starting", "version", version, "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		// closing subscriptions ends open event streams so Shutdown can drain
		subscriptions.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newServer(cfg *config.Config, log *slog.Logger, h handlers.Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = common.NewRequestValidator()
	e.HTTPErrorHandler = common.HTTPErrorHandler(log)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(log, "/v1/health/live", "/v1/health/ready", "/v1/metrics"))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	versions := middleware.NewVersionMiddleware()
	e.Use(versions.APIVersionResolver())

	handlers.RegisterRoutes(versions.VersionRoute(e, versions.GetCurrentVersion()), h)
	return e
}
