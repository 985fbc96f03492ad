package events

import "github.com/kilianp07/seatmatch/core/model"

// RoundEvent is published after the resolution phase of each round.
type RoundEvent struct {
	Round      int
	Proposals  int
	Rejections int
	Released   int
	Unseated   int
}

// UnitDissolvedEvent is published when a unit permanently stops proposing
// together. Reason is "exhausted" or "no_common_facility".
type UnitDissolvedEvent struct {
	Unit    string
	Members []int64
	Round   int
	Reason  string
}

// FallbackEvent is published for each fallback placement.
type FallbackEvent struct {
	ApplicantID int64
	Seat        model.SeatKey
	// Mode is "unit", "preference" or "random".
	Mode string
}

// RunCompletedEvent is published once the run finished.
type RunCompletedEvent struct {
	Rounds    int
	Converged model.ConvergeReason
	Assigned  int
	Unmatched int
}
