package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/seatmatch/core/model"
)

func TestTopics(t *testing.T) {
	assert.Equal(t, "seatmatch/assignments/ELEM001/05", AssignmentTopic("seatmatch", "ELEM001", "05"))
	assert.Equal(t, "seatmatch/unmatched/05", UnmatchedTopic("seatmatch", "05"))
}

func TestMessages(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	m := NewAssignmentMessage("r1", model.Assignment{ApplicantID: 3, Grade: "05", Facility: "F", Rank: model.UnrankedRank, Fallback: true}, at)
	assert.Equal(t, int64(1700000000000), m.Timestamp)
	assert.Equal(t, -1, m.Rank)
	assert.True(t, m.Fallback)

	a := &model.Applicant{ID: 4, Grade: "02", Preferences: []string{"F1"}}
	u := NewUnmatchedMessage("r1", a, at)
	a.Preferences[0] = "F9"
	assert.Equal(t, []string{"F1"}, u.Preferences)
	assert.Equal(t, int64(4), u.ApplicantID)
}
