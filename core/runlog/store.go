package runlog

import (
	"context"
	"time"

	"github.com/kilianp07/seatmatch/core/model"
)

// RunRecord captures the outcome of one matching run.
type RunRecord struct {
	RunID       string               `json:"run_id"`
	Timestamp   time.Time            `json:"timestamp"`
	Grade       string               `json:"grade,omitempty"`
	Rounds      int                  `json:"rounds"`
	Converged   model.ConvergeReason `json:"converged"`
	Applicants  int                  `json:"applicants"`
	Assignments []model.Assignment   `json:"assignments"`
	Unmatched   []int64              `json:"unmatched"`
}

// NewRunRecord builds a record from an engine result.
func NewRunRecord(res *model.MatchResult, grade string, applicants int, at time.Time) RunRecord {
	return RunRecord{
		RunID:       res.RunID,
		Timestamp:   at,
		Grade:       grade,
		Rounds:      res.Rounds,
		Converged:   res.Converged,
		Applicants:  applicants,
		Assignments: res.Assignments,
		Unmatched:   res.UnmatchedIDs(),
	}
}

// RunQuery defines filters for retrieving records. Zero fields match all.
type RunQuery struct {
	Start       time.Time
	End         time.Time
	ApplicantID int64
	Facility    string
}

// Matches reports whether r passes every filter of q.
func (q RunQuery) Matches(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.ApplicantID == 0 && q.Facility == "" {
		return true
	}
	for _, a := range r.Assignments {
		if (q.ApplicantID == 0 || a.ApplicantID == q.ApplicantID) &&
			(q.Facility == "" || a.Facility == q.Facility) {
			return true
		}
	}
	if q.Facility == "" {
		for _, id := range r.Unmatched {
			if id == q.ApplicantID {
				return true
			}
		}
	}
	return false
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}
