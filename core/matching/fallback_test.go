package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/seatmatch/core/model"
	"github.com/kilianp07/seatmatch/infra/logger"
)

// leftoverArena builds an arena whose applicants have all been through the
// round loop without a seat.
func leftoverArena(t *testing.T, as []*model.Applicant, caps map[string]int) *Arena {
	t.Helper()
	ar, err := newArena(as, seats(caps))
	require.NoError(t, err)
	ar.units = buildUnits(as)
	for _, u := range ar.units {
		for _, id := range u.members {
			ar.unitOf[id] = u
		}
	}
	for _, a := range as {
		a.Cursor = len(a.Preferences)
	}
	return ar
}

func TestRandomFallback_UnitPlacedTogether(t *testing.T) {
	as := []*model.Applicant{
		{ID: 1, Grade: "X", FamilyKey: "F"},
		{ID: 2, Grade: "Y", FamilyKey: "F"},
	}
	ar := leftoverArena(t, as, map[string]int{
		"A_X": 1, "A_Y": 1, "B_X": 1, "C_X": 1, "C_Y": 1,
	})
	rng := &scriptedRand{picks: []int{1}}
	ps := NewRandomFallback(rng, logger.NopLogger{}).Allocate(ar, ar.unseated())

	// A and C fit both members, B lacks a Y seat.
	assert.Equal(t, []int{2}, rng.calls)
	require.Len(t, ps, 2)
	for _, p := range ps {
		assert.Equal(t, "C", p.Seat.Facility)
		assert.Equal(t, ModeUnit, p.Mode)
		assert.Equal(t, model.UnrankedRank, p.Rank)
	}
	assert.Empty(t, ar.unseated())
}

func TestRandomFallback_RollbackOnPartialPlacement(t *testing.T) {
	// Both members share a grade; each check sees one spare seat at A, but
	// only one of them can take it.
	as := []*model.Applicant{
		{ID: 1, Grade: "X", FamilyKey: "F"},
		{ID: 2, Grade: "X", FamilyKey: "F"},
	}
	ar := leftoverArena(t, as, map[string]int{"A_X": 1, "B_X": 1})
	rng := &scriptedRand{picks: []int{0, 0, 0}}
	ps := NewRandomFallback(rng, logger.NopLogger{}).Allocate(ar, ar.unseated())

	require.Len(t, ps, 2)
	for _, p := range ps {
		assert.Equal(t, ModeRandom, p.Mode)
	}
	assert.Equal(t, 1, ar.Held(model.SeatKey{Facility: "A", Grade: "X"}))
	assert.Equal(t, 1, ar.Held(model.SeatKey{Facility: "B", Grade: "X"}))
	// unit draw over {A, B}, then individual draws over {A, B} and {B}.
	assert.Equal(t, []int{2, 2, 1}, rng.calls)
}

func TestRandomFallback_NoWaste(t *testing.T) {
	as := []*model.Applicant{
		{ID: 1, Grade: "01"},
		{ID: 2, Grade: "01"},
		{ID: 3, Grade: "02"},
		{ID: 4, Grade: "03"},
	}
	ar := leftoverArena(t, as, map[string]int{"A_01": 1, "B_01": 1, "A_02": 0})
	ps := NewRandomFallback(&scriptedRand{picks: []int{1, 0}}, logger.NopLogger{}).Allocate(ar, ar.unseated())

	require.Len(t, ps, 2)
	a1, _ := ar.Applicant(1)
	a2, _ := ar.Applicant(2)
	assert.Equal(t, "B", a1.Held.Facility)
	assert.Equal(t, "A", a2.Held.Facility)
	var left []int64
	for _, a := range ar.unseated() {
		left = append(left, a.ID)
	}
	assert.Equal(t, []int64{3, 4}, left)
}

func TestRandomFallback_PrefersRemainingChoices(t *testing.T) {
	a := &model.Applicant{ID: 1, Grade: "01", Preferences: []string{"A", "B", "C"}}
	ar := leftoverArena(t, []*model.Applicant{a}, map[string]int{"A_01": 1, "B_01": 0, "C_01": 1})
	a.Cursor = 1

	rng := &scriptedRand{}
	ps := NewRandomFallback(rng, logger.NopLogger{}).Allocate(ar, ar.unseated())
	require.Len(t, ps, 1)
	assert.Equal(t, "C", ps[0].Seat.Facility)
	assert.Equal(t, 3, ps[0].Rank)
	assert.Equal(t, ModePreference, ps[0].Mode)
	assert.Empty(t, rng.calls)
}

func TestRandomFallback_RandomOnly(t *testing.T) {
	a := &model.Applicant{ID: 1, Grade: "01", Preferences: []string{"A", "B", "C"}}
	ar := leftoverArena(t, []*model.Applicant{a}, map[string]int{"A_01": 1, "C_01": 1})
	a.Cursor = 1

	fb := NewRandomFallback(&scriptedRand{picks: []int{0}}, logger.NopLogger{})
	fb.RandomOnly = true
	ps := fb.Allocate(ar, ar.unseated())
	require.Len(t, ps, 1)
	assert.Equal(t, "A", ps[0].Seat.Facility)
	assert.Equal(t, ModeRandom, ps[0].Mode)
}

func TestRandomFallback_SeededReplay(t *testing.T) {
	run := func() []Placement {
		var as []*model.Applicant
		for i := 1; i <= 6; i++ {
			as = append(as, &model.Applicant{ID: int64(i), Grade: "01"})
		}
		ar := leftoverArena(t, as, map[string]int{"A_01": 2, "B_01": 2, "C_01": 2})
		return NewRandomFallback(NewRandSource(42), logger.NopLogger{}).Allocate(ar, ar.unseated())
	}
	assert.Equal(t, run(), run())
}

func TestNoopFallback(t *testing.T) {
	as := []*model.Applicant{{ID: 1, Grade: "01"}}
	ar := leftoverArena(t, as, map[string]int{"A_01": 1})
	assert.Empty(t, NoopFallback{}.Allocate(ar, ar.unseated()))
}
