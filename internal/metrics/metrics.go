// Package metrics exposes pipeline counters for the ops endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/propdesk/bestbets/internal/models"
)

var (
	CandidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bestbets_candidates_total",
		Help: "Candidate predictions processed across all runs",
	})

	PicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bestbets_picks_total",
		Help: "Picks emitted across all runs",
	})

	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bestbets_rejections_total",
		Help: "Candidates rejected, by filter reason",
	}, []string{"reason"})

	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bestbets_run_duration_seconds",
		Help:    "Wall-clock duration of full aggregation runs",
		Buckets: prometheus.DefBuckets,
	})

	RunFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bestbets_run_failures_total",
		Help: "Runs aborted by a fatal error",
	})
)

// RecordSummary publishes one run's filter summary.
func RecordSummary(summary models.FilterSummary) {
	CandidatesTotal.Add(float64(summary.TotalCandidates))
	PicksTotal.Add(float64(summary.PassedFilters))
	for reason, count := range summary.Rejected {
		if count > 0 {
			RejectionsTotal.WithLabelValues(reason).Add(float64(count))
		}
	}
}
