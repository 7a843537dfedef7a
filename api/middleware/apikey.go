package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dcastellanos/shiftpay-backend/api/responses"
	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

const apiKeyHeader = "X-Api-Key"

// APIKey guards internal routes behind the shared key. An empty configured
// key disables the guard, which is only acceptable in local development.
func APIKey(cfg config.InternalAPIConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Key == "" {
				next.ServeHTTP(w, r)
				return
			}
			presented := strings.TrimSpace(r.Header.Get(apiKeyHeader))
			if presented == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.Key)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
