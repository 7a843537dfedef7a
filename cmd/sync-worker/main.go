package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dcastellanos/shiftpay-backend/internal/cron"
	"github.com/dcastellanos/shiftpay-backend/internal/identity"
	"github.com/dcastellanos/shiftpay-backend/internal/ingest"
	"github.com/dcastellanos/shiftpay-backend/internal/locations"
	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	"github.com/dcastellanos/shiftpay-backend/pkg/db"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
	"github.com/dcastellanos/shiftpay-backend/pkg/metrics"
	"github.com/dcastellanos/shiftpay-backend/pkg/migrate"
	"github.com/dcastellanos/shiftpay-backend/pkg/redis"
	"github.com/dcastellanos/shiftpay-backend/pkg/worksuite"
)

const lockKeyFormat = "sp:sync-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	platform, err := worksuite.NewClient(context.Background(), cfg.WorkSuite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create platform client", err)
		os.Exit(1)
	}

	locationsRepo := locations.NewRepository(dbClient.DB())
	if err := locations.ValidateMapping(context.Background(), locationsRepo); err != nil {
		logg.Error(context.Background(), "location mapping is invalid", err)
		os.Exit(1)
	}

	resolver, err := identity.NewResolver(platform, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity resolver", err)
		os.Exit(1)
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	ingestService, err := ingest.NewService(ingest.ServiceParams{
		Repo:      ingest.NewRepository(dbClient.DB()),
		Locations: locationsRepo,
		Resolver:  resolver,
		Platform:  platform,
		Metrics:   syncMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ingest service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewReconcileJob(cron.ReconcileJobParams{
		Logger:    logg,
		Ingest:    ingestService,
		Locations: locationsRepo,
		Window:    cfg.Sync.ReconcileWindow,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Sync.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Sync.ReconcileInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
