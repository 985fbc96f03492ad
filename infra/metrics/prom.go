package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/seatmatch/core/metrics"
)

// PromSink records match results in Prometheus metrics.
type PromSink struct {
	assignments  *prometheus.CounterVec
	rank         prometheus.Histogram
	runs         *prometheus.CounterVec
	lastRounds   prometheus.Gauge
	dissolutions *prometheus.CounterVec
}

// NewPromSink registers match metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seatmatch_assignments_total",
			Help: "Total number of seats assigned",
		}, []string{"facility", "grade", "fallback"}),
		rank: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seatmatch_assigned_rank",
			Help:    "Preference rank achieved by ranked assignments",
			Buckets: []float64{1, 2, 3, 4, 5, 7, 10},
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seatmatch_runs_total",
			Help: "Number of matching runs by convergence reason",
		}, []string{"converged"}),
		lastRounds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seatmatch_last_run_rounds",
			Help: "Rounds used by the most recent run",
		}),
		dissolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seatmatch_dissolutions_total",
			Help: "Sibling units that could not be kept together, by reason",
		}, []string{"reason"}),
	}
	var err error
	if s.assignments, err = register(reg, s.assignments); err != nil {
		return nil, err
	}
	if s.rank, err = register(reg, s.rank); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.lastRounds, err = register(reg, s.lastRounds); err != nil {
		return nil, err
	}
	if s.dissolutions, err = register(reg, s.dissolutions); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an already registered collector.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordMatchResult counts assignments and the run outcome.
func (s *PromSink) RecordMatchResult(rec coremetrics.MatchRecord) error {
	for _, a := range rec.Assignments {
		s.assignments.WithLabelValues(a.Facility, a.Grade, strconv.FormatBool(a.Fallback)).Inc()
		if a.Ranked() {
			s.rank.Observe(float64(a.Rank))
		}
	}
	s.runs.WithLabelValues(string(rec.Converged)).Inc()
	s.lastRounds.Set(float64(rec.Rounds))
	return nil
}

// RecordDissolution counts a dissolved unit.
func (s *PromSink) RecordDissolution(ev coremetrics.DissolutionEvent) error {
	s.dissolutions.WithLabelValues(ev.Reason).Inc()
	return nil
}
