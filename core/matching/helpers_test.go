package matching

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/seatmatch/core/model"
	"github.com/kilianp07/seatmatch/infra/logger"
)

// scriptedRand replays picks, wrapping each into [0, n).
type scriptedRand struct {
	picks []int
	calls []int
}

func (r *scriptedRand) IntN(n int) int {
	r.calls = append(r.calls, n)
	if len(r.picks) == 0 {
		return 0
	}
	p := r.picks[0]
	r.picks = r.picks[1:]
	return p % n
}

func seats(caps map[string]int) model.SeatMap {
	m := make(model.SeatMap, len(caps))
	for k, c := range caps {
		var key model.SeatKey
		for i := len(k) - 1; i >= 0; i-- {
			if k[i] == '_' {
				key = model.SeatKey{Facility: k[:i], Grade: k[i+1:]}
				break
			}
		}
		m[key] = &model.Seat{Key: key, Name: key.Facility, Capacity: c}
	}
	return m
}

func newTestEngine(t *testing.T, fb FallbackStrategy, cfg Config) *Engine {
	t.Helper()
	ResetMetrics(nil)
	e, err := NewEngine(GroupPriorityPolicy{}, fb, cfg, logger.NopLogger{})
	require.NoError(t, err)
	return e
}

func byID(res *model.MatchResult) map[int64]model.Assignment {
	out := make(map[int64]model.Assignment, len(res.Assignments))
	for _, a := range res.Assignments {
		out[a.ApplicantID] = a
	}
	return out
}
