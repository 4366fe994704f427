package persistence

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the reconciler. All methods are
// nil-safe, so instrumentation stays optional.
type Metrics struct {
	EnsuresTotal        *prometheus.CounterVec
	IndexesCreatedTotal prometheus.Counter
	EnsureDuration      prometheus.Histogram
}

// NewMetrics creates and registers the reconciler metrics with reg, or with
// the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EnsuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hati_index_ensures_total",
				Help: "Total number of index reconciliation calls",
			},
			[]string{"status"},
		),
		IndexesCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hati_indexes_created_total",
				Help: "Total number of indexes created by reconciliation",
			},
		),
		EnsureDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hati_index_ensure_duration_seconds",
				Help:    "Duration of index reconciliation calls in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
	}
}

func (m *Metrics) recordEnsure(status string, created int, duration time.Duration) {
	if m == nil {
		return
	}
	m.EnsuresTotal.WithLabelValues(status).Inc()
	m.IndexesCreatedTotal.Add(float64(created))
	m.EnsureDuration.Observe(duration.Seconds())
}
