package notify

import (
	"fmt"

	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ledger events by type.
type Metrics struct {
	events *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bonus_ledger_events_total",
				Help: "How many ledger events were emitted, partitioned by event type.",
			},
			[]string{"type"},
		),
	}
}

func (m *Metrics) Emit(e ledger.Event) {
	m.events.WithLabelValues(string(e.EventType())).Inc()
}

// Register registers the collectors with the registerer.
func (m *Metrics) Register(r prometheus.Registerer) error {
	if err := r.Register(m.events); err != nil {
		return fmt.Errorf("could not register ledger event metrics with Prometheus: %w", err)
	}

	return nil
}

// Unregister removes the collectors from the registerer.
func (m *Metrics) Unregister(r prometheus.Registerer) bool {
	return r.Unregister(m.events)
}
