// Package metrics provides observability for the tender workflow module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks workflow transitions, rule rejections, and deadline-job
// runs. Services nil-guard the struct so tests can pass nil.
type Metrics struct {
	LotTransitions *prometheus.CounterVec
	RuleRejections *prometheus.CounterVec
	JobRunDuration prometheus.Histogram
	JobProcessed   prometheus.Counter
	JobFailed      prometheus.Counter
}

// New registers and returns the module metrics.
func New() *Metrics {
	return &Metrics{
		LotTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gare_lot_transitions_total",
			Help: "Lot state transitions applied, by from/to state and trigger",
		}, []string{"from", "to", "trigger"}),
		RuleRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gare_rule_rejections_total",
			Help: "Business-rule rejections surfaced to callers, by error code",
		}, []string{"code"}),
		JobRunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gare_deadline_job_duration_seconds",
			Help:    "Duration of deadline re-evaluation job runs",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		JobProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gare_deadline_job_items_processed_total",
			Help: "Items successfully processed by the deadline job",
		}),
		JobFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gare_deadline_job_items_failed_total",
			Help: "Items that failed during deadline job runs",
		}),
	}
}

// ObserveTransition records one applied lot transition.
func (m *Metrics) ObserveTransition(from, to, trigger string) {
	m.LotTransitions.WithLabelValues(from, to, trigger).Inc()
}

// ObserveRejection records a business-rule rejection by code.
func (m *Metrics) ObserveRejection(code string) {
	m.RuleRejections.WithLabelValues(code).Inc()
}

// ObserveJobRun records the duration of one deadline-job run.
// Call with time.Now() captured at the start of the run.
func (m *Metrics) ObserveJobRun(start time.Time) {
	m.JobRunDuration.Observe(time.Since(start).Seconds())
}

// AddJobResults records per-run processed/failed counts.
func (m *Metrics) AddJobResults(processed, failed int) {
	m.JobProcessed.Add(float64(processed))
	m.JobFailed.Add(float64(failed))
}
