package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes planning operations to Prometheus.
type Collector struct {
	operations *prometheus.CounterVec
	swaps      prometheus.Counter
	duration   *prometheus.HistogramVec
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartmeal_operations_total",
			Help: "Planning operations served, by operation.",
		}, []string{"operation"}),
		swaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartmeal_replan_swaps_total",
			Help: "Meal slots changed by budget replans.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartmeal_operation_duration_seconds",
			Help:    "Latency of planning operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(c.operations, c.swaps, c.duration)
	}
	return c
}

// Observe counts one operation.
func (c *Collector) Observe(m ExecutionMetric) {
	c.operations.WithLabelValues(m.Operation).Inc()
	c.duration.WithLabelValues(m.Operation).Observe((time.Duration(m.LatencyMS) * time.Millisecond).Seconds())
	if m.Operation == OpReplan && m.Changed > 0 {
		c.swaps.Add(float64(m.Changed))
	}
}
