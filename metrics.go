package autoconf

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts descriptor outcomes and times resolutions.
type Metrics struct {
	outcomes  *prometheus.CounterVec
	conflicts prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoconf",
			Name:      "descriptor_outcomes_total",
			Help:      "Descriptor outcomes by configuration and outcome.",
		}, []string{"configuration", "outcome"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "autoconf",
			Name:      "conflicts_total",
			Help:      "Resolutions aborted by conflicting registrations.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autoconf",
			Name:      "resolution_duration_seconds",
			Help:      "Wall time of a full resolution.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.outcomes, m.conflicts, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WithMetrics records resolution metrics on m.
func WithMetrics(m *Metrics) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.metrics = m
	}
}

func (m *Metrics) observeOutcome(configuration string, outcome OutcomeKind) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(configuration, string(outcome)).Inc()
}

func (m *Metrics) observeConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *Metrics) observeDuration(seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
}
