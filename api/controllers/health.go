package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dcastellanos/shiftpay-backend/api/responses"
	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

const readyProbeTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShiftPay-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness once the datastore and the dedupe store
// answer a ping. Nil dependencies are skipped so the probe works in
// degraded local setups.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShiftPay-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		checks := map[string]pinger{"database": db, "redis": redis}
		for name, dep := range checks {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				failure := pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable")
				responses.WriteError(ctx, logg, w, failure)
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
