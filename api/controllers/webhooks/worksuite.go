package webhookcontrollers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dcastellanos/shiftpay-backend/api/responses"
	"github.com/dcastellanos/shiftpay-backend/internal/ingest"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

type eventHandler interface {
	HandleEvent(ctx context.Context, event *ingest.WebhookEvent) error
}

type deliveryGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// WorkSuiteWebhook ingests push notifications from the workforce platform.
// The acknowledgement shape follows the platform's contract: a bare
// `{success, event}` object rather than the API envelope. Duplicate
// deliveries inside the dedupe window are acknowledged without reprocessing;
// a handling failure unmarks the delivery so the platform's retry lands.
func WorkSuiteWebhook(svc eventHandler, guard deliveryGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ingest service unavailable"))
			return
		}

		// lenient decode: the platform adds fields to its payloads without
		// notice, so unknown keys must not reject a delivery
		var event ingest.WebhookEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook body"))
			return
		}
		if event.Event == "" || event.Data == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event and data are required"))
			return
		}

		ctx := r.Context()
		if guard != nil && event.Data.ID != "" {
			duplicate, err := guard.CheckAndMark(ctx, event.Data.ID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook dedupe check"))
				return
			}
			if duplicate {
				if logg != nil {
					dupCtx := logg.WithEventID(ctx, event.Data.ID)
					logg.Info(dupCtx, "duplicate webhook delivery acknowledged")
				}
				responses.WriteRaw(w, http.StatusOK, map[string]any{"success": true, "event": event.Event})
				return
			}
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if guard != nil && event.Data.ID != "" {
				if delErr := guard.Delete(ctx, event.Data.ID); delErr != nil && logg != nil {
					logg.Error(ctx, "failed to unmark webhook delivery", delErr)
				}
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteRaw(w, http.StatusOK, map[string]any{"success": true, "event": event.Event})
	}
}

// WorkSuiteChallenge answers the platform's verification handshake by
// echoing the challenge query parameter.
func WorkSuiteChallenge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		challenge := r.URL.Query().Get("challenge")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
	}
}
