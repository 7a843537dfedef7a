package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcastellanos/shiftpay-backend/internal/payperiod"
	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

func testRouter(key string) http.Handler {
	cfg := &config.Config{
		Payroll:     config.PayrollConfig{ReferenceDate: "2025-01-03", PayWeekday: "Friday"},
		InternalAPI: config.InternalAPIConfig{Key: key},
	}
	return NewRouter(Deps{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "router-test"}),
		Calculator: payperiod.NewCalculator(cfg.Payroll),
	})
}

func TestRouterHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterWebhookChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/worksuite?challenge=ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "ping" {
		t.Fatalf("expected challenge echoed, got %q", got)
	}
}

func TestRouterInternalRoutesRequireAPIKey(t *testing.T) {
	router := testRouter("secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payroll/period?payDate=2025-01-17", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/payroll/period?payDate=2025-01-17", nil)
	req.Header.Set("X-Api-Key", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterWebhookBypassesAPIKey(t *testing.T) {
	router := testRouter("secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/worksuite?challenge=x", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook routes must not require the internal key, got %d", rec.Code)
	}
}
