package metrics

import (
	"time"

	"github.com/kilianp07/seatmatch/core/model"
)

// MatchRecord summarizes one completed matching run.
type MatchRecord struct {
	RunID          string
	Grade          string
	Rounds         int
	Converged      model.ConvergeReason
	HitRoundCap    bool
	Applicants     int
	Assignments    []model.Assignment
	Unmatched      []int64
	FallbackPlaced int
	DissolvedUnits int
	Elapsed        time.Duration
	Time           time.Time
}

// NewMatchRecord builds a record from an engine result.
func NewMatchRecord(res *model.MatchResult, grade string, applicants int, at time.Time) MatchRecord {
	return MatchRecord{
		RunID:          res.RunID,
		Grade:          grade,
		Rounds:         res.Rounds,
		Converged:      res.Converged,
		HitRoundCap:    res.HitRoundCap,
		Applicants:     applicants,
		Assignments:    res.Assignments,
		Unmatched:      res.UnmatchedIDs(),
		FallbackPlaced: res.FallbackPlaced,
		DissolvedUnits: len(res.DissolvedUnits),
		Elapsed:        res.Elapsed,
		Time:           at,
	}
}

// MetricsSink records match results for observability purposes.
type MetricsSink interface {
	RecordMatchResult(rec MatchRecord) error
}

// RoundEvent captures the outcome of one round of the matching loop.
type RoundEvent struct {
	RunID      string
	Round      int
	Proposals  int
	Rejections int
	Unseated   int
	Time       time.Time
}

// RoundRecorder records per-round progress.
type RoundRecorder interface {
	RecordRound(ev RoundEvent) error
}

// FallbackEvent records a placement made after the round loop.
type FallbackEvent struct {
	RunID       string
	ApplicantID int64
	Facility    string
	Grade       string
	Mode        string
	Time        time.Time
}

// FallbackRecorder records fallback placements.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// DissolutionEvent records a sibling unit giving up togetherness.
type DissolutionEvent struct {
	RunID   string
	Unit    string
	Members int
	Round   int
	Reason  string
	Time    time.Time
}

// DissolutionRecorder records unit dissolutions.
type DissolutionRecorder interface {
	RecordDissolution(ev DissolutionEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordMatchResult(MatchRecord) error { return nil }

func (NopSink) RecordRound(RoundEvent) error             { return nil }
func (NopSink) RecordFallback(FallbackEvent) error       { return nil }
func (NopSink) RecordDissolution(DissolutionEvent) error { return nil }
