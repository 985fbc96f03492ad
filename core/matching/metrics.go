package matching

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	roundsHistogram    prometheus.Histogram
	unmatchedGauge     prometheus.Gauge
	unitsDissolved     prometheus.Counter
	rejectionsTotal    prometheus.Counter
	fallbackPlacements *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, prometheus.Gauge, prometheus.Counter, prometheus.Counter, *prometheus.CounterVec) {
	rounds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seatmatch_rounds",
			Help:    "Number of rounds run by the matching loop",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 50, 100, 1000},
		},
	)
	unmatched := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "seatmatch_unmatched_applicants",
			Help: "Applicants left without a seat by the last run",
		},
	)
	dissolved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seatmatch_units_dissolved_total",
			Help: "Number of sibling units that could not be kept together",
		},
	)
	rejections := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seatmatch_rejections_total",
			Help: "Number of tentative holds rejected by seat resolution",
		},
	)
	fallback := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatmatch_fallback_placements_total",
			Help: "Number of applicants placed by the fallback allocator",
		},
		[]string{"mode"},
	)
	return rounds, unmatched, dissolved, rejections, fallback
}

func init() {
	roundsHistogram, unmatchedGauge, unitsDissolved, rejectionsTotal, fallbackPlacements = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers matching metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(roundsHistogram, unmatchedGauge, unitsDissolved, rejectionsTotal, fallbackPlacements)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	roundsHistogram, unmatchedGauge, unitsDissolved, rejectionsTotal, fallbackPlacements = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
