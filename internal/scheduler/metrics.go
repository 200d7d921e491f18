package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments batch execution.
type Metrics struct {
	jobsTotal   *prometheus.CounterVec
	jobDuration prometheus.Histogram
	batchSize   prometheus.Histogram
}

// NewMetrics registers the scheduler metrics on reg. A nil registerer
// yields unregistered (but usable) collectors, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uvcal",
			Subsystem: "scheduler",
			Name:      "jobs_total",
			Help:      "Section jobs by final status.",
		}, []string{"status"}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "uvcal",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Wall time of one section job.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "uvcal",
			Subsystem: "scheduler",
			Name:      "batch_size_jobs",
			Help:      "Jobs per scheduled batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}
