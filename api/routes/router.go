package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dcastellanos/shiftpay-backend/api/controllers"
	webhookcontrollers "github.com/dcastellanos/shiftpay-backend/api/controllers/webhooks"
	"github.com/dcastellanos/shiftpay-backend/api/middleware"
	"github.com/dcastellanos/shiftpay-backend/internal/aggregate"
	"github.com/dcastellanos/shiftpay-backend/internal/compensation"
	"github.com/dcastellanos/shiftpay-backend/internal/employees"
	"github.com/dcastellanos/shiftpay-backend/internal/ingest"
	"github.com/dcastellanos/shiftpay-backend/internal/locations"
	"github.com/dcastellanos/shiftpay-backend/internal/payperiod"
	"github.com/dcastellanos/shiftpay-backend/internal/payroll"
	worksuitewebhook "github.com/dcastellanos/shiftpay-backend/internal/webhooks/worksuite"
	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	"github.com/dcastellanos/shiftpay-backend/pkg/db"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
	"github.com/dcastellanos/shiftpay-backend/pkg/redis"
)

// Deps collects everything the router mounts. The webhook endpoints sit
// outside the API-key guard: the platform authenticates by knowing the
// webhook URL and dedupe handles its replays.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         db.Pinger
	Redis      *redis.Client
	Registry   *prometheus.Registry
	Ingest     *ingest.Service
	Guard      *worksuitewebhook.IdempotencyGuard
	Engine     *compensation.Service
	Payroll    *payroll.Service
	Aggregate  *aggregate.Service
	Locations  *locations.Repository
	Employees  *employees.Repository
	Calculator *payperiod.Calculator
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/webhooks/worksuite", func(r chi.Router) {
		r.Post("/", webhookcontrollers.WorkSuiteWebhook(deps.Ingest, deps.Guard, logg))
		r.Get("/", webhookcontrollers.WorkSuiteChallenge())
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.InternalAPI, logg))
		r.Use(middleware.RateLimit(
			middleware.NewRateLimitPolicy("internal-api", cfg.InternalAPI.RateLimitWindow, cfg.InternalAPI.RateLimit),
			deps.Redis,
			logg,
		))

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/submissions", controllers.PayrollSubmit(deps.Engine, deps.Calculator, logg))
			r.Get("/submissions", controllers.PayrollSubmissionList(deps.Payroll, logg))
			r.Get("/submissions/{id}", controllers.PayrollSubmissionDetail(deps.Payroll, logg))
			r.Get("/period", controllers.PayrollPeriod(deps.Calculator, logg))
			r.Get("/aggregate", controllers.AggregateCounts(deps.Aggregate, deps.Locations, deps.Employees, logg))
			r.Get("/aggregate/hours", controllers.AggregateHours(deps.Aggregate, deps.Locations, deps.Employees, logg))
		})

		r.Post("/sync/reconcile", controllers.SyncReconcile(deps.Ingest, deps.Locations, logg))
	})

	return r
}
