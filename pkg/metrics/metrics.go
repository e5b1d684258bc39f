// Package metrics counts harvest progress with Prometheus collectors and
// writes them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "review_harvester"

// Metrics holds the collectors for one harvest run. A nil *Metrics
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Branches       *prometheus.CounterVec // status: done|skipped
	StopReasons    *prometheus.CounterVec // reason: cap|stall|extent|error
	Fragments      *prometheus.CounterVec // status: ok|malformed|duplicate
	Attempts       prometheus.Counter
	BranchDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Branches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "branches_total", Help: "Branch passes by terminal status."},
			[]string{"status"},
		),
		StopReasons: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "pagination_stops_total", Help: "Why pagination stopped."},
			[]string{"reason"},
		),
		Fragments: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "fragments_total", Help: "Review fragments by extraction status."},
			[]string{"status"},
		),
		Attempts: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "pagination_attempts_total", Help: "Reveal attempts across all branches."},
		),
		BranchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace, Name: "branch_duration_seconds",
				Help:    "Time spent on one branch pass.",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
			},
		),
	}
	m.Registry.MustRegister(m.Branches, m.StopReasons, m.Fragments, m.Attempts, m.BranchDuration)
	return m
}

// ObserveBranch records one finished branch pass.
func (m *Metrics) ObserveBranch(outcome models.BranchOutcome, dur time.Duration) {
	if m == nil {
		return
	}
	m.Branches.WithLabelValues(string(outcome.Status)).Inc()
	if outcome.StopReason != "" {
		m.StopReasons.WithLabelValues(outcome.StopReason).Inc()
	}
	m.Attempts.Add(float64(outcome.Attempts))
	m.BranchDuration.Observe(dur.Seconds())
}

// ObserveFragments records extraction outcomes.
func (m *Metrics) ObserveFragments(outcomes []models.FragmentOutcome) {
	if m == nil {
		return
	}
	for _, o := range outcomes {
		m.Fragments.WithLabelValues(string(o.Status)).Inc()
	}
}

// WriteTextfile writes all collectors to path for the node exporter's
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
