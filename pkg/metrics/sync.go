package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records observability counters for the ingestion pipeline.
type SyncMetrics struct {
	webhookEvents      *prometheus.CounterVec
	pollPages          *prometheus.CounterVec
	eventsUpserted     prometheus.Counter
	identityUnresolved prometheus.Counter
	aggregateDropped   prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_webhook_events_total",
		Help: "Webhook deliveries received, by event type.",
	}, []string{"event"})
	pollPages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_poll_pages_total",
		Help: "Pages fetched from the workforce platform during reconciliation.",
	}, []string{"listing"})
	eventsUpserted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_production_events_upserted_total",
		Help: "Production events created or updated by ingestion.",
	})
	identityUnresolved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_identity_unresolved_total",
		Help: "Events stored without a resolved payroll email (reconciliation gap).",
	})
	aggregateDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aggregate_unknown_identities_total",
		Help: "Aggregated items dropped because their identity is not a candidate employee.",
	})
	reg.MustRegister(webhookEvents, pollPages, eventsUpserted, identityUnresolved, aggregateDropped)
	return &SyncMetrics{
		webhookEvents:      webhookEvents,
		pollPages:          pollPages,
		eventsUpserted:     eventsUpserted,
		identityUnresolved: identityUnresolved,
		aggregateDropped:   aggregateDropped,
	}
}

// IncWebhookEvent counts one webhook delivery of the given event type.
func (s *SyncMetrics) IncWebhookEvent(event string) {
	if s == nil || s.webhookEvents == nil {
		return
	}
	s.webhookEvents.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncPollPage counts one fetched page of the named listing.
func (s *SyncMetrics) IncPollPage(listing string) {
	if s == nil || s.pollPages == nil {
		return
	}
	s.pollPages.WithLabelValues(normalizeLabel(listing)).Inc()
}

// IncEventUpserted counts one applied production event.
func (s *SyncMetrics) IncEventUpserted() {
	if s == nil || s.eventsUpserted == nil {
		return
	}
	s.eventsUpserted.Inc()
}

// IncIdentityUnresolved counts one event stored without a payroll email.
func (s *SyncMetrics) IncIdentityUnresolved() {
	if s == nil || s.identityUnresolved == nil {
		return
	}
	s.identityUnresolved.Inc()
}

// IncAggregateDropped counts one item excluded from aggregation output.
func (s *SyncMetrics) IncAggregateDropped() {
	if s == nil || s.aggregateDropped == nil {
		return
	}
	s.aggregateDropped.Inc()
}
