package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/seatmatch/core/model"
	"github.com/kilianp07/seatmatch/core/notify"
)

// Publisher mirrors the core notify.Publisher interface.
type Publisher = notify.Publisher

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Assignments []notify.AssignmentMessage
	Unmatched   []notify.UnmatchedMessage
	// FailIDs makes publishing for these applicant ids fail.
	FailIDs map[int64]bool
	Closed  bool
	mu      sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailIDs: make(map[int64]bool)}
}

// PublishAssignment records the message or returns an error if configured to fail.
func (m *MockPublisher) PublishAssignment(_ context.Context, runID string, a model.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[a.ApplicantID] {
		return fmt.Errorf("%w: applicant %d", notify.ErrPublish, a.ApplicantID)
	}
	m.Assignments = append(m.Assignments, notify.NewAssignmentMessage(runID, a, time.Now()))
	return nil
}

// PublishUnmatched records the message or returns an error if configured to fail.
func (m *MockPublisher) PublishUnmatched(_ context.Context, runID string, a *model.Applicant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[a.ID] {
		return fmt.Errorf("%w: applicant %d", notify.ErrPublish, a.ID)
	}
	m.Unmatched = append(m.Unmatched, notify.NewUnmatchedMessage(runID, a, time.Now()))
	return nil
}

// Close marks the publisher closed.
func (m *MockPublisher) Close() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
}
