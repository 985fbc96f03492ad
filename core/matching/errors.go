package matching

import (
	"errors"
	"fmt"

	"github.com/kilianp07/seatmatch/core/model"
)

var (
	// ErrInvariantViolation indicates a defect in the engine rather than in
	// the input data.
	ErrInvariantViolation = errors.New("matching invariant violated")
	// ErrDuplicateApplicant is returned when two applicants share an id.
	ErrDuplicateApplicant = errors.New("duplicate applicant id")
	// ErrSeatKeyMismatch is returned when a seat is stored under a key that
	// differs from its own.
	ErrSeatKeyMismatch = errors.New("seat stored under wrong key")
	// ErrStaleApplicant is returned for records already used by a run.
	ErrStaleApplicant = errors.New("applicant carries state from a previous run")
	// ErrNoSeat is returned by Arena.Place when the seat does not exist or
	// has no spare capacity.
	ErrNoSeat = errors.New("no spare seat")
)

// InvariantKind classifies an invariant violation.
type InvariantKind string

const (
	InvariantCapacity   InvariantKind = "capacity"
	InvariantDoubleHold InvariantKind = "double_hold"
	InvariantUnknown    InvariantKind = "unknown_applicant"
)

// InvariantError describes a broken invariant. It wraps ErrInvariantViolation.
type InvariantError struct {
	Kind        InvariantKind
	Round       int
	Seat        model.SeatKey
	ApplicantID int64
	Detail      string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v: %s at seat %s (round %d, applicant %d): %s",
		ErrInvariantViolation, e.Kind, e.Seat, e.Round, e.ApplicantID, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }
