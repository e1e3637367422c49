// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cycles counts briefing cycles by trigger (scheduled, command, test, api) and outcome.
	Cycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "briefing",
		Name:      "cycles_total",
		Help:      "Briefing cycles executed.",
	}, []string{"trigger", "outcome"})

	// UpstreamAbsent counts fetches that degraded to an absent result.
	UpstreamAbsent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "briefing",
		Name:      "upstream_absent_total",
		Help:      "Upstream fetches that yielded no usable result.",
	}, []string{"host", "reason"})

	// Selections counts candidate selection outcomes (selected, exhausted).
	Selections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "briefing",
		Name:      "selections_total",
		Help:      "Candidate selection attempts.",
	}, []string{"outcome"})

	// Transcodes counts transcoder runs by kind (static, animated) and outcome.
	Transcodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "briefing",
		Name:      "transcodes_total",
		Help:      "Media transcoder runs.",
	}, []string{"kind", "outcome"})

	// CycleDuration observes end-to-end cycle latency.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "briefing",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of one briefing cycle.",
		Buckets:   []float64{1, 2, 5, 10, 20, 40, 80},
	})
)
