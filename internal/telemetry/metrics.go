package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	GenerationRequests  = prometheus.NewCounter(prometheus.CounterOpts{Name: "plans_generation_requests_total", Help: "Generation jobs submitted"})
	GenerationCompleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "plans_generation_completed_total", Help: "Generation jobs that produced a plan"})
	GenerationFailed    = prometheus.NewCounter(prometheus.CounterOpts{Name: "plans_generation_failed_total", Help: "Generation jobs that ended in failure"})
	StatusPolls         = prometheus.NewCounter(prometheus.CounterOpts{Name: "plans_status_polls_total", Help: "Status endpoint queries"})
	RateLimitRejects    = prometheus.NewCounter(prometheus.CounterOpts{Name: "plans_rate_limit_rejects_total", Help: "Generation submissions rejected by rate limiter"})
	JobsInFlight        = prometheus.NewGauge(prometheus.GaugeOpts{Name: "plans_generation_inflight", Help: "Generation jobs currently leased by a worker"})
	GenerationDuration  = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plans_generation_duration_seconds",
		Help:    "Wall time from dequeue to terminal job state",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			GenerationRequests,
			GenerationCompleted,
			GenerationFailed,
			StatusPolls,
			RateLimitRejects,
			JobsInFlight,
			GenerationDuration,
		)
	})
	return promhttp.Handler()
}
