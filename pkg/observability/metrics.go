package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

// Metrics bundles the prometheus collectors for the conversation engine
type Metrics struct {
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	FragmentsEmitted   prometheus.Counter
	FragmentsDropped   prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics registers the engine collectors on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Completed generation requests by terminal status.",
		}, []string{"status"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Wall-clock duration of full generation cycles.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		FragmentsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fragments_emitted_total",
			Help: "Stream fragments delivered to the event surface.",
		}),
		FragmentsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fragments_dropped_total",
			Help: "Stream fragments dropped because a consumer was too slow.",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.GenerationsTotal,
		m.GenerationDuration,
		m.FragmentsEmitted,
		m.FragmentsDropped,
	)

	return m
}

// Handler exposes the registry as a gin handler for the /metrics route
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
