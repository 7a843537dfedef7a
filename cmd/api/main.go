package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dcastellanos/shiftpay-backend/api/routes"
	"github.com/dcastellanos/shiftpay-backend/internal/aggregate"
	"github.com/dcastellanos/shiftpay-backend/internal/compensation"
	"github.com/dcastellanos/shiftpay-backend/internal/employees"
	"github.com/dcastellanos/shiftpay-backend/internal/identity"
	"github.com/dcastellanos/shiftpay-backend/internal/ingest"
	"github.com/dcastellanos/shiftpay-backend/internal/locations"
	"github.com/dcastellanos/shiftpay-backend/internal/payperiod"
	"github.com/dcastellanos/shiftpay-backend/internal/payroll"
	worksuitewebhook "github.com/dcastellanos/shiftpay-backend/internal/webhooks/worksuite"
	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	"github.com/dcastellanos/shiftpay-backend/pkg/db"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
	"github.com/dcastellanos/shiftpay-backend/pkg/metrics"
	"github.com/dcastellanos/shiftpay-backend/pkg/migrate"
	"github.com/dcastellanos/shiftpay-backend/pkg/redis"
	"github.com/dcastellanos/shiftpay-backend/pkg/worksuite"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	syncMetrics := metrics.NewSyncMetrics(registry)

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

	guard, err := worksuitewebhook.NewIdempotencyGuard(redisClient, cfg.Sync.WebhookDedupeTTL, "worksuite")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	calculator := payperiod.NewCalculator(cfg.Payroll)
	employeesRepo := employees.NewRepository(dbClient.DB())
	payrollRepo := payroll.NewRepository(dbClient.DB())

	payrollService, err := payroll.NewService(payroll.ServiceParams{Repo: payrollRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create payroll service", err)
		os.Exit(1)
	}

	engine, err := compensation.NewService(compensation.ServiceParams{
		Store:      payrollRepo,
		Employees:  employeesRepo,
		Calculator: calculator,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create compensation engine", err)
		os.Exit(1)
	}

	aggregateService, err := aggregate.NewService(aggregate.ServiceParams{
		Store:    ingest.NewRepository(dbClient.DB()),
		Platform: platform,
		Resolver: resolver,
		Metrics:  syncMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create aggregation service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Registry:   registry,
			Ingest:     ingestService,
			Guard:      guard,
			Engine:     engine,
			Payroll:    payrollService,
			Aggregate:  aggregateService,
			Locations:  locationsRepo,
			Employees:  employeesRepo,
			Calculator: calculator,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
