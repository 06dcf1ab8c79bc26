package compile

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-phase durations and unit outcomes.
type Metrics struct {
	phases *prometheus.HistogramVec
	units  *prometheus.CounterVec
}

// NewMetrics creates the compile metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		phases: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voidc",
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each compiler phase.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"phase"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voidc",
			Name:      "units_total",
			Help:      "Compiled units by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.phases, m.units)
	return m
}

func (m *Metrics) observePhase(p Phase, d time.Duration) {
	if m != nil {
		m.phases.WithLabelValues(p.String()).Observe(d.Seconds())
	}
}

func (m *Metrics) countUnit(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.units.WithLabelValues(result).Inc()
}
