package matching

import (
	"fmt"
	"sort"

	"github.com/kilianp07/seatmatch/core/model"
)

type seatState struct {
	seat     *model.Seat
	holders  map[int64]struct{}
	rejected map[int64]struct{}
}

// Arena owns the mutable state of one run. Applicants are addressed by id
// and seats by key; units and holder sets never alias records.
type Arena struct {
	applicants map[int64]*model.Applicant
	ids        []int64
	seats      map[model.SeatKey]*seatState
	seatKeys   []model.SeatKey
	units      []*unit
	unitOf     map[int64]*unit
	// heldSince records the round of the proposal behind the current hold.
	heldSince map[int64]int
}

func newArena(applicants []*model.Applicant, seats model.SeatMap) (*Arena, error) {
	ar := &Arena{
		applicants: make(map[int64]*model.Applicant, len(applicants)),
		ids:        make([]int64, 0, len(applicants)),
		seats:      make(map[model.SeatKey]*seatState, len(seats)),
		unitOf:     make(map[int64]*unit, len(applicants)),
		heldSince:  make(map[int64]int),
	}
	for k, s := range seats {
		if s == nil {
			return nil, fmt.Errorf("seat %s: nil", k)
		}
		if s.Key != k {
			return nil, fmt.Errorf("%w: %s stored under %s", ErrSeatKeyMismatch, s.Key, k)
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		ar.seats[k] = &seatState{seat: s, holders: make(map[int64]struct{}), rejected: make(map[int64]struct{})}
	}
	ar.seatKeys = seats.Keys()
	for _, a := range applicants {
		if _, ok := ar.applicants[a.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateApplicant, a.ID)
		}
		if a.IsHeld() || a.Cursor != 0 {
			return nil, fmt.Errorf("%w: %d", ErrStaleApplicant, a.ID)
		}
		ar.applicants[a.ID] = a
		ar.ids = append(ar.ids, a.ID)
	}
	sort.Slice(ar.ids, func(i, j int) bool { return ar.ids[i] < ar.ids[j] })
	return ar, nil
}

// Applicant returns the record for id.
func (ar *Arena) Applicant(id int64) (*model.Applicant, bool) {
	a, ok := ar.applicants[id]
	return a, ok
}

// Seat returns the seat for key.
func (ar *Arena) Seat(key model.SeatKey) (*model.Seat, bool) {
	st, ok := ar.seats[key]
	if !ok {
		return nil, false
	}
	return st.seat, true
}

// SeatKeys returns every seat key sorted by facility then grade.
func (ar *Arena) SeatKeys() []model.SeatKey { return ar.seatKeys }

// Held returns the number of current holders of key.
func (ar *Arena) Held(key model.SeatKey) int {
	st, ok := ar.seats[key]
	if !ok {
		return 0
	}
	return len(st.holders)
}

// Spare returns the remaining capacity of key, zero for unknown seats.
func (ar *Arena) Spare(key model.SeatKey) int {
	st, ok := ar.seats[key]
	if !ok {
		return 0
	}
	if n := st.seat.Capacity - len(st.holders); n > 0 {
		return n
	}
	return 0
}

// Togetherness returns the state and size of the unit of applicant id.
func (ar *Arena) Togetherness(id int64) (model.Togetherness, int) {
	u, ok := ar.unitOf[id]
	if !ok {
		return model.TogethernessDissolved, 1
	}
	return u.state, len(u.members)
}

// Place gives applicant id a seat at key if capacity allows, releasing any
// seat it held.
func (ar *Arena) Place(id int64, key model.SeatKey) error {
	if _, ok := ar.applicants[id]; !ok {
		return fmt.Errorf("applicant %d: unknown", id)
	}
	if ar.Spare(key) <= 0 {
		return fmt.Errorf("%w: %s", ErrNoSeat, key)
	}
	ar.hold(id, key, 0)
	return nil
}

// Release drops the seat currently held by applicant id, if any.
func (ar *Arena) Release(id int64) {
	a, ok := ar.applicants[id]
	if !ok || !a.IsHeld() {
		return
	}
	if st, ok := ar.seats[a.Held]; ok {
		delete(st.holders, id)
	}
	a.Held = model.SeatKey{}
	delete(ar.heldSince, id)
}

// hold makes id a tentative holder of key without a capacity check.
func (ar *Arena) hold(id int64, key model.SeatKey, round int) {
	ar.Release(id)
	ar.seats[key].holders[id] = struct{}{}
	ar.applicants[id].Held = key
	ar.heldSince[id] = round
}

// reject releases id from the seat it holds and records the rejection there.
func (ar *Arena) reject(id int64) {
	a := ar.applicants[id]
	if st, ok := ar.seats[a.Held]; ok {
		st.rejected[id] = struct{}{}
	}
	ar.Release(id)
}

// unseated returns the applicants without a seat, ordered by id.
func (ar *Arena) unseated() []*model.Applicant {
	var out []*model.Applicant
	for _, id := range ar.ids {
		if a := ar.applicants[id]; !a.IsHeld() {
			out = append(out, a)
		}
	}
	return out
}

// checkInvariants verifies the capacity and single-hold invariants.
func (ar *Arena) checkInvariants(round int) error {
	seen := make(map[int64]model.SeatKey, len(ar.applicants))
	for _, key := range ar.seatKeys {
		st := ar.seats[key]
		if len(st.holders) > st.seat.Capacity {
			return &InvariantError{Kind: InvariantCapacity, Round: round, Seat: key,
				Detail: fmt.Sprintf("%d holders for capacity %d", len(st.holders), st.seat.Capacity)}
		}
		for id := range st.holders {
			a, ok := ar.applicants[id]
			if !ok {
				return &InvariantError{Kind: InvariantUnknown, Round: round, Seat: key, ApplicantID: id, Detail: "holder not in pool"}
			}
			if prev, dup := seen[id]; dup {
				return &InvariantError{Kind: InvariantDoubleHold, Round: round, Seat: key, ApplicantID: id,
					Detail: fmt.Sprintf("also held at %s", prev)}
			}
			if a.Held != key {
				return &InvariantError{Kind: InvariantDoubleHold, Round: round, Seat: key, ApplicantID: id,
					Detail: fmt.Sprintf("applicant points at %s", a.Held)}
			}
			seen[id] = key
		}
	}
	for _, id := range ar.ids {
		a := ar.applicants[id]
		if a.IsHeld() {
			if _, ok := seen[id]; !ok {
				return &InvariantError{Kind: InvariantDoubleHold, Round: round, Seat: a.Held, ApplicantID: id,
					Detail: "applicant missing from holder set"}
			}
		}
	}
	return nil
}

// assignment builds the output record for a seated applicant.
func (ar *Arena) assignment(a *model.Applicant, rank int, fallback bool) model.Assignment {
	name := ""
	if s, ok := ar.Seat(a.Held); ok {
		name = s.Name
	}
	round := ar.heldSince[a.ID]
	if fallback {
		round = 0
	}
	return model.Assignment{
		ApplicantID:       a.ID,
		Name:              a.DisplayName(),
		DistrictID:        a.DistrictID,
		Grade:             a.Grade,
		Facility:          a.Held.Facility,
		FacilityName:      name,
		Rank:              rank,
		Priority:          a.Priority,
		SubPriority:       a.SubPriority,
		Unit:              a.Unit,
		FamilyKey:         a.FamilyKey,
		SiblingFacility:   a.SiblingFacility,
		AtSiblingFacility: a.HasSiblingFacility() && a.Held.Facility == a.SiblingFacility,
		Round:             round,
		Fallback:          fallback,
	}
}
