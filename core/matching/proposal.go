package matching

import (
	"github.com/kilianp07/seatmatch/core/events"
	"github.com/kilianp07/seatmatch/core/model"
)

const (
	reasonExhausted        = "exhausted"
	reasonNoCommonFacility = "no_common_facility"
)

// roundStats counts what happened in one round.
type roundStats struct {
	proposals  int
	rejections int
	released   int
	dissolved  int
}

func (s roundStats) progressed() bool {
	return s.proposals > 0 || s.dissolved > 0 || s.released > 0
}

// proposeUnit lets the unresolved members of u propose, together when the
// unit is active and more than one member is unresolved.
func (e *Engine) proposeUnit(ar *Arena, u *unit, round int, st *roundStats) {
	var pending []*model.Applicant
	for _, id := range u.members {
		if a := ar.applicants[id]; !a.IsHeld() {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return
	}
	if u.active() && len(pending) > 1 {
		st.proposals += e.proposeTogether(ar, u, pending, round, st)
		return
	}
	for _, a := range pending {
		if e.proposeIndividual(ar, a, round) {
			st.proposals++
		}
	}
}

// proposeTogether scans for the next position where every member looks at
// the same facility and a seat exists for each member's grade. The first
// member is the reference for the facility at the scan position. It returns
// the number of proposals made.
func (e *Engine) proposeTogether(ar *Arena, u *unit, members []*model.Applicant, round int, st *roundStats) int {
	for _, m := range members {
		if m.Exhausted() {
			e.dissolve(ar, u, round, reasonExhausted, st)
			return 0
		}
	}
	first := members[0]
	pos, limit := members[0].Cursor, len(members[0].Preferences)
	for _, m := range members[1:] {
		pos = min(pos, m.Cursor)
		limit = min(limit, len(m.Preferences))
	}
	keys := make([]model.SeatKey, len(members))
	for ; pos < limit; pos++ {
		facility := first.Preferences[pos]
		if e.commonSeats(ar, members, facility, keys) {
			for i, m := range members {
				ar.hold(m.ID, keys[i], round)
				m.Cursor++
			}
			e.logger.Debugf("unit %s proposes to %s with %d members", u.key, facility, len(members))
			return len(members)
		}
		for _, m := range members {
			if !m.Exhausted() {
				m.Cursor++
			}
		}
	}
	e.dissolve(ar, u, round, reasonNoCommonFacility, st)
	return 0
}

// commonSeats reports whether every member's cursor points at facility and a
// seat exists for each member's grade there. keys receives the seat keys.
func (e *Engine) commonSeats(ar *Arena, members []*model.Applicant, facility string, keys []model.SeatKey) bool {
	for i, m := range members {
		next, ok := m.NextPreference()
		if !ok || next != facility {
			return false
		}
		key := model.SeatKey{Facility: facility, Grade: m.Grade}
		if _, exists := ar.seats[key]; !exists {
			return false
		}
		keys[i] = key
	}
	return true
}

// proposeIndividual proposes a to its next preference that has a seat for
// its grade, skipping entries without one. It reports whether a proposal was
// made.
func (e *Engine) proposeIndividual(ar *Arena, a *model.Applicant, round int) bool {
	for !a.Exhausted() {
		key := model.SeatKey{Facility: a.Preferences[a.Cursor], Grade: a.Grade}
		a.Cursor++
		if _, ok := ar.seats[key]; !ok {
			e.logger.Debugf("applicant %d: no seat %s, skipping", a.ID, key)
			continue
		}
		ar.hold(a.ID, key, round)
		return true
	}
	return false
}

// dissolve permanently clears the togetherness of u.
func (e *Engine) dissolve(ar *Arena, u *unit, round int, reason string, st *roundStats) {
	if !u.active() {
		return
	}
	u.state = model.TogethernessDissolved
	st.dissolved++
	unitsDissolved.Inc()
	e.logger.Warnf("unit %s cannot stay together (%s), members continue individually", u.key, reason)
	e.publish(events.UnitDissolvedEvent{Unit: u.key, Members: append([]int64(nil), u.members...), Round: round, Reason: reason})
}
