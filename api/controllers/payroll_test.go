package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dcastellanos/shiftpay-backend/internal/compensation"
	"github.com/dcastellanos/shiftpay-backend/internal/payperiod"
	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
)

type stubEngine struct {
	input compensation.SubmitInput
	err   error
}

func (s *stubEngine) ComputeAndSubmit(_ context.Context, input compensation.SubmitInput) (*models.PayrollSubmission, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.input = input
	return &models.PayrollSubmission{ID: uuid.New()}, nil
}

func testCalculator() *payperiod.Calculator {
	return payperiod.NewCalculator(config.PayrollConfig{
		ReferenceDate: "2025-01-03",
		PayWeekday:    "Friday",
	})
}

func submitBody(payDate, group string) string {
	return `{
		"organizationId":"` + uuid.NewString() + `",
		"locationId":"` + uuid.NewString() + `",
		"payDate":"` + payDate + `",
		"payrollGroup":"` + group + `",
		"submittedBy":"manager@example.com",
		"employees":[{"employeeId":"` + uuid.NewString() + `","hours":"37.5"}]
	}`
}

func postSubmit(t *testing.T, engine *stubEngine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/payroll/submissions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	PayrollSubmit(engine, testCalculator(), nil)(rec, req)
	return rec
}

func TestPayrollSubmitReturnsSubmissionID(t *testing.T) {
	engine := &stubEngine{}
	rec := postSubmit(t, engine, submitBody("2025-01-17", "A"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("expected success flag, got %v", body)
	}
	if _, err := uuid.Parse(body["submissionId"].(string)); err != nil {
		t.Fatalf("expected submission id, got %v", body["submissionId"])
	}
}

func TestPayrollSubmitRejectsMissingFields(t *testing.T) {
	rec := postSubmit(t, &stubEngine{}, `{"payDate":"2025-01-17"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPayrollSubmitRejectsGroupMismatch(t *testing.T) {
	// 2025-01-17 derives to the reference date's group
	rec := postSubmit(t, &stubEngine{}, submitBody("2025-01-17", "B"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for group mismatch, got %d", rec.Code)
	}
}

func TestPayrollSubmitSurfacesEngineFailure(t *testing.T) {
	engine := &stubEngine{err: pkgerrors.New(pkgerrors.CodeInternal, "entries failed")}
	rec := postSubmit(t, engine, submitBody("2025-01-17", ""))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestPayrollPeriodPreview(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/payroll/period?payDate=2025-01-17", nil)
	rec := httptest.NewRecorder()
	PayrollPeriod(testCalculator(), nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data payperiod.Period `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode period: %v", err)
	}
	if got := envelope.Data.PeriodEnd.Format("2006-01-02"); got != "2025-01-08" {
		t.Fatalf("expected period end 2025-01-08, got %s", got)
	}
	if got := envelope.Data.PeriodStart.Format("2006-01-02"); got != "2024-12-26" {
		t.Fatalf("expected period start 2024-12-26, got %s", got)
	}
}

func TestPayrollPeriodListsUpcomingPayDates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/payroll/period?payDate=2025-01-17&upcoming=2", nil)
	rec := httptest.NewRecorder()
	PayrollPeriod(testCalculator(), nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Upcoming []string `json:"upcomingPayDates"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode period: %v", err)
	}
	want := []string{"2025-01-24", "2025-01-31"}
	if len(envelope.Data.Upcoming) != len(want) {
		t.Fatalf("expected %d upcoming dates, got %v", len(want), envelope.Data.Upcoming)
	}
	for i, date := range want {
		if envelope.Data.Upcoming[i] != date {
			t.Fatalf("expected upcoming[%d]=%s, got %s", i, date, envelope.Data.Upcoming[i])
		}
	}
}

func TestPayrollPeriodRejectsOffWeekday(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/payroll/period?payDate=2025-01-16", nil)
	rec := httptest.NewRecorder()
	PayrollPeriod(testCalculator(), nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
