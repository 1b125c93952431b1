package parking

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/smart-parking/internal/model"
)

// Metrics are the Prometheus collectors updated by Lot.  A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registrations *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	exits         *prometheus.CounterVec
	revenue       prometheus.Counter
	slots         *prometheus.GaugeVec
	journalErrors *prometheus.CounterVec
	publishErrors prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.  Passing
// prometheus.DefaultRegisterer exposes them on the default /metrics
// handler.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking",
			Name:      "registrations_total",
			Help:      "Vehicles registered, by vehicle type and assigned slot type.",
		}, []string{"vehicle_type", "slot_type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking",
			Name:      "registration_rejections_total",
			Help:      "Registrations that did not open a session, by reason.",
		}, []string{"reason"}),
		exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking",
			Name:      "exits_total",
			Help:      "Sessions closed, by billing type.",
		}, []string{"billing_type"}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parking",
			Name:      "revenue_total",
			Help:      "Amount collected from closed sessions.",
		}),
		slots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "parking",
			Name:      "slots",
			Help:      "Slots by type and status.",
		}, []string{"slot_type", "status"}),
		journalErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking",
			Name:      "journal_failures_total",
			Help:      "Failed write-throughs to durable storage, by operation.",
		}, []string{"op"}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parking",
			Name:      "event_publish_failures_total",
			Help:      "Session events that could not be published.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.registrations, m.rejections, m.exits, m.revenue,
		m.slots, m.journalErrors, m.publishErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) registered(s model.Session) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(s.Vehicle.Type.String(), s.Slot.Type.String()).Inc()
}

func (m *Metrics) rejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) exited(s model.Session) {
	if m == nil {
		return
	}
	m.exits.WithLabelValues(s.BillingType.String()).Inc()
	if s.Amount != nil {
		m.revenue.Add(float64(*s.Amount))
	}
}

func (m *Metrics) occupancy(counts map[model.SlotType]model.TypeSummary) {
	if m == nil {
		return
	}
	for t, c := range counts {
		m.slots.WithLabelValues(t.String(), model.SlotAvailable.String()).Set(float64(len(c.Available)))
		m.slots.WithLabelValues(t.String(), model.SlotOccupied.String()).Set(float64(c.Occupied))
		m.slots.WithLabelValues(t.String(), model.SlotMaintenance.String()).Set(float64(c.Maintenance))
	}
}

func (m *Metrics) journalFailed(op string) {
	if m == nil {
		return
	}
	m.journalErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) publishFailed() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}
