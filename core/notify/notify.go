package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/seatmatch/core/model"
)

// ErrPublish is returned when a notification could not be delivered after
// all retries.
var ErrPublish = errors.New("notification not delivered")

// Publisher announces the outcome of a run to downstream consumers.
type Publisher interface {
	// PublishAssignment announces the seat given to one applicant.
	PublishAssignment(ctx context.Context, runID string, a model.Assignment) error
	// PublishUnmatched announces an applicant left without a seat.
	PublishUnmatched(ctx context.Context, runID string, a *model.Applicant) error
	// Close releases the underlying connection.
	Close()
}

// AssignmentMessage is the payload sent for each assignment.
type AssignmentMessage struct {
	RunID             string `json:"run_id"`
	ApplicantID       int64  `json:"applicant_id"`
	Name              string `json:"name,omitempty"`
	Grade             string `json:"grade"`
	Facility          string `json:"facility"`
	FacilityName      string `json:"facility_name,omitempty"`
	Rank              int    `json:"rank"`
	Fallback          bool   `json:"fallback"`
	Unit              string `json:"unit,omitempty"`
	AtSiblingFacility bool   `json:"at_sibling_facility"`
	Timestamp         int64  `json:"timestamp"`
}

// NewAssignmentMessage builds the payload for a.
func NewAssignmentMessage(runID string, a model.Assignment, at time.Time) AssignmentMessage {
	return AssignmentMessage{
		RunID:             runID,
		ApplicantID:       a.ApplicantID,
		Name:              a.Name,
		Grade:             a.Grade,
		Facility:          a.Facility,
		FacilityName:      a.FacilityName,
		Rank:              a.Rank,
		Fallback:          a.Fallback,
		Unit:              a.Unit,
		AtSiblingFacility: a.AtSiblingFacility,
		Timestamp:         at.UnixMilli(),
	}
}

// UnmatchedMessage is the payload sent for each unmatched applicant.
type UnmatchedMessage struct {
	RunID       string   `json:"run_id"`
	ApplicantID int64    `json:"applicant_id"`
	Name        string   `json:"name,omitempty"`
	Grade       string   `json:"grade"`
	Preferences []string `json:"preferences"`
	Timestamp   int64    `json:"timestamp"`
}

// NewUnmatchedMessage builds the payload for a.
func NewUnmatchedMessage(runID string, a *model.Applicant, at time.Time) UnmatchedMessage {
	return UnmatchedMessage{
		RunID:       runID,
		ApplicantID: a.ID,
		Name:        a.DisplayName(),
		Grade:       a.Grade,
		Preferences: append([]string(nil), a.Preferences...),
		Timestamp:   at.UnixMilli(),
	}
}

// AssignmentTopic returns the topic for assignments at facility and grade.
func AssignmentTopic(prefix, facility, grade string) string {
	return fmt.Sprintf("%s/assignments/%s/%s", prefix, facility, grade)
}

// UnmatchedTopic returns the topic for unmatched applicants of grade.
func UnmatchedTopic(prefix, grade string) string {
	return fmt.Sprintf("%s/unmatched/%s", prefix, grade)
}

// NopPublisher discards every notification.
type NopPublisher struct{}

func (NopPublisher) PublishAssignment(context.Context, string, model.Assignment) error { return nil }
func (NopPublisher) PublishUnmatched(context.Context, string, *model.Applicant) error  { return nil }
func (NopPublisher) Close()                                                            {}
