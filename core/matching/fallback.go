package matching

import (
	"sort"

	"github.com/kilianp07/seatmatch/core/logger"
	"github.com/kilianp07/seatmatch/core/model"
)

// Fallback placement modes.
const (
	ModeUnit       = "unit"
	ModePreference = "preference"
	ModeRandom     = "random"
)

// Placement is a seat given by a FallbackStrategy.
type Placement struct {
	ApplicantID int64
	Seat        model.SeatKey
	Rank        int
	Mode        string
}

// FallbackStrategy places applicants left over after the round loop. It
// must only use Arena.Place and Arena.Release to change holds.
type FallbackStrategy interface {
	Allocate(ar *Arena, unseated []*model.Applicant) []Placement
}

// NoopFallback leaves every leftover applicant unmatched.
type NoopFallback struct{}

func (NoopFallback) Allocate(*Arena, []*model.Applicant) []Placement { return nil }

// RandomFallback places leftover units at a random facility that has room
// for every member, and individuals at a random seat of their grade.
type RandomFallback struct {
	rng    RandSource
	logger logger.Logger
	// RandomOnly disables the pass over an individual's remaining ranked
	// entries before the random draw.
	RandomOnly bool
}

// NewRandomFallback returns a fallback drawing from rng.
func NewRandomFallback(rng RandSource, log logger.Logger) *RandomFallback {
	return &RandomFallback{rng: rng, logger: log}
}

// Allocate implements FallbackStrategy.
func (f *RandomFallback) Allocate(ar *Arena, unseated []*model.Applicant) []Placement {
	var out []Placement
	for _, group := range f.groups(ar, unseated) {
		if len(group) > 1 {
			if ps, ok := f.placeUnit(ar, group); ok {
				out = append(out, ps...)
				continue
			}
		}
		for _, a := range group {
			if p, ok := f.placeIndividual(ar, a); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// groups splits unseated into the leftover members of active units and
// singletons, ordered by lowest member id.
func (f *RandomFallback) groups(ar *Arena, unseated []*model.Applicant) [][]*model.Applicant {
	byUnit := make(map[*unit][]*model.Applicant)
	var order []*unit
	var out [][]*model.Applicant
	for _, a := range unseated {
		u := ar.unitOf[a.ID]
		if u == nil || !u.active() || !u.multi() {
			out = append(out, []*model.Applicant{a})
			continue
		}
		if _, ok := byUnit[u]; !ok {
			order = append(order, u)
		}
		byUnit[u] = append(byUnit[u], a)
	}
	for _, u := range order {
		out = append(out, byUnit[u])
	}
	// unseated is id-ordered, so each group's first member is its lowest id.
	sort.SliceStable(out, func(i, j int) bool { return out[i][0].ID < out[j][0].ID })
	return out
}

// placeUnit seats every member at one randomly drawn facility. When a
// placement fails midway the members already placed are released.
func (f *RandomFallback) placeUnit(ar *Arena, members []*model.Applicant) ([]Placement, bool) {
	facilities := feasibleFacilities(ar, members)
	if len(facilities) == 0 {
		f.logger.Debugf("fallback: no facility fits unit %s", members[0].Unit)
		return nil, false
	}
	facility := facilities[f.rng.IntN(len(facilities))]
	placed := make([]Placement, 0, len(members))
	for _, m := range members {
		key := model.SeatKey{Facility: facility, Grade: m.Grade}
		if err := ar.Place(m.ID, key); err != nil {
			f.logger.Warnf("fallback: placing unit %s at %s failed: %v, rolling back %d members", members[0].Unit, facility, err, len(placed))
			for _, p := range placed {
				ar.Release(p.ApplicantID)
			}
			return nil, false
		}
		placed = append(placed, Placement{ApplicantID: m.ID, Seat: key, Rank: model.UnrankedRank, Mode: ModeUnit})
	}
	f.logger.Infof("fallback: unit %s placed together at %s", members[0].Unit, facility)
	return placed, true
}

// feasibleFacilities lists, sorted, the facilities with spare capacity for
// each member's grade checked member by member.
func feasibleFacilities(ar *Arena, members []*model.Applicant) []string {
	var out []string
	for _, key := range ar.SeatKeys() {
		if len(out) > 0 && out[len(out)-1] == key.Facility {
			continue
		}
		ok := true
		for _, m := range members {
			if ar.Spare(model.SeatKey{Facility: key.Facility, Grade: m.Grade}) <= 0 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, key.Facility)
		}
	}
	return out
}

func (f *RandomFallback) placeIndividual(ar *Arena, a *model.Applicant) (Placement, bool) {
	if !f.RandomOnly {
		for _, facility := range a.Preferences[a.Cursor:] {
			key := model.SeatKey{Facility: facility, Grade: a.Grade}
			if ar.Place(a.ID, key) == nil {
				f.logger.Infof("fallback: applicant %d placed at remaining choice %s", a.ID, key)
				return Placement{ApplicantID: a.ID, Seat: key, Rank: a.Rank(facility), Mode: ModePreference}, true
			}
		}
	}
	var open []model.SeatKey
	for _, key := range ar.SeatKeys() {
		if key.Grade == a.Grade && ar.Spare(key) > 0 {
			open = append(open, key)
		}
	}
	if len(open) == 0 {
		return Placement{}, false
	}
	key := open[f.rng.IntN(len(open))]
	if err := ar.Place(a.ID, key); err != nil {
		f.logger.Errorf("fallback: placing applicant %d at %s: %v", a.ID, key, err)
		return Placement{}, false
	}
	f.logger.Infof("fallback: applicant %d placed at random seat %s", a.ID, key)
	return Placement{ApplicantID: a.ID, Seat: key, Rank: model.UnrankedRank, Mode: ModeRandom}, true
}
