package matching

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kilianp07/seatmatch/core/events"
	"github.com/kilianp07/seatmatch/core/logger"
	"github.com/kilianp07/seatmatch/core/model"
	"github.com/kilianp07/seatmatch/internal/eventbus"
)

// Engine runs the sibling-aware deferred acceptance procedure.
type Engine struct {
	policy   SeatPolicy
	fallback FallbackStrategy
	cfg      Config
	logger   logger.Logger
	bus      eventbus.EventBus
}

// NewEngine creates a new engine. A zero MaxRounds uses DefaultMaxRounds.
func NewEngine(policy SeatPolicy, fallback FallbackStrategy, cfg Config, log logger.Logger) (*Engine, error) {
	if policy == nil || fallback == nil || log == nil {
		return nil, fmt.Errorf("matching: nil parameter provided to NewEngine")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: policy, fallback: fallback, cfg: cfg, logger: log}, nil
}

// SetEventBus configures the bus receiving engine events.
func (e *Engine) SetEventBus(bus eventbus.EventBus) { e.bus = bus }

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

// Run matches applicants to seats. The applicant records are mutated: their
// preference lists are boosted, cursors advanced and holds recorded, so each
// run needs fresh records. Seats are read only.
//
// The returned error is non-nil only for invalid input or a broken engine
// invariant (wrapping ErrInvariantViolation); unmatched applicants are
// reported in the result.
func (e *Engine) Run(applicants []*model.Applicant, seats model.SeatMap) (*model.MatchResult, error) {
	start := time.Now()
	ar, err := newArena(applicants, seats)
	if err != nil {
		return nil, err
	}
	boosted := BoostSiblingPreferences(applicants, e.logger)
	ar.units = buildUnits(applicants)
	for _, u := range ar.units {
		for _, id := range u.members {
			ar.unitOf[id] = u
		}
	}
	e.logger.Infow("starting match", map[string]any{
		"applicants": len(ar.ids),
		"units":      len(ar.units),
		"seats":      len(ar.seatKeys),
		"boosted":    boosted,
	})

	res := &model.MatchResult{}
	if err := e.loop(ar, res); err != nil {
		return nil, err
	}
	for _, id := range ar.ids {
		a := ar.applicants[id]
		if a.IsHeld() {
			res.Assignments = append(res.Assignments, ar.assignment(a, a.Rank(a.Held.Facility), false))
		}
	}

	if left := ar.unseated(); len(left) > 0 {
		e.logger.Infof("fallback: %d applicants left after %d rounds", len(left), res.Rounds)
		for _, p := range e.fallback.Allocate(ar, left) {
			a := ar.applicants[p.ApplicantID]
			res.Assignments = append(res.Assignments, ar.assignment(a, p.Rank, true))
			res.FallbackPlaced++
			fallbackPlacements.WithLabelValues(p.Mode).Inc()
			e.publish(events.FallbackEvent{ApplicantID: a.ID, Seat: a.Held, Mode: p.Mode})
		}
		if err := ar.checkInvariants(res.Rounds); err != nil {
			return nil, err
		}
	}

	res.Unmatched = ar.unseated()
	for _, a := range res.Unmatched {
		e.logger.Warnf("applicant %d (%s) unmatched: no seat available for grade %s", a.ID, a.DisplayName(), a.Grade)
	}
	for _, u := range ar.units {
		if !u.active() {
			res.DissolvedUnits = append(res.DissolvedUnits, u.key)
		}
	}
	res.Elapsed = time.Since(start)

	roundsHistogram.Observe(float64(res.Rounds))
	unmatchedGauge.Set(float64(len(res.Unmatched)))
	e.publish(events.RunCompletedEvent{Rounds: res.Rounds, Converged: res.Converged, Assigned: len(res.Assignments), Unmatched: len(res.Unmatched)})
	e.logger.Infow("match completed", map[string]any{
		"rounds":    res.Rounds,
		"converged": string(res.Converged),
		"assigned":  len(res.Assignments),
		"fallback":  res.FallbackPlaced,
		"unmatched": len(res.Unmatched),
		"elapsed":   res.Elapsed.String(),
	})
	return res, nil
}

// loop alternates proposal and resolution phases until convergence.
func (e *Engine) loop(ar *Arena, res *model.MatchResult) error {
	if len(ar.ids) == 0 {
		res.Converged = model.ConvergedAllSeated
		return nil
	}
	for round := 1; ; round++ {
		res.Rounds = round
		var st roundStats
		for _, u := range ar.units {
			e.proposeUnit(ar, u, round, &st)
		}
		if err := e.resolve(ar, round, &st); err != nil {
			return err
		}
		e.reconcile(ar, round, &st)
		if err := ar.checkInvariants(round); err != nil {
			return err
		}

		unseated := ar.unseated()
		rejectionsTotal.Add(float64(st.rejections))
		e.logger.Debugw("round completed", map[string]any{
			"round":      round,
			"proposals":  st.proposals,
			"rejections": st.rejections,
			"released":   st.released,
			"unseated":   len(unseated),
		})
		e.publish(events.RoundEvent{Round: round, Proposals: st.proposals, Rejections: st.rejections, Released: st.released, Unseated: len(unseated)})

		if reason, done := e.converged(unseated, st, round); done {
			res.Converged = reason
			res.HitRoundCap = reason == model.ConvergedRoundCap
			e.logger.Infof("round loop stopped after %d rounds: %s", round, reason)
			return nil
		}
	}
}

func (e *Engine) converged(unseated []*model.Applicant, st roundStats, round int) (model.ConvergeReason, bool) {
	if len(unseated) == 0 {
		return model.ConvergedAllSeated, true
	}
	exhausted := true
	for _, a := range unseated {
		if !a.Exhausted() {
			exhausted = false
			break
		}
	}
	switch {
	case exhausted:
		return model.ConvergedExhausted, true
	case !st.progressed():
		return model.ConvergedNoProgress, true
	case round >= e.cfg.MaxRounds:
		return model.ConvergedRoundCap, true
	}
	return "", false
}

// resolve runs the seat policy on every seat holding someone.
func (e *Engine) resolve(ar *Arena, round int, st *roundStats) error {
	for _, key := range ar.seatKeys {
		ss := ar.seats[key]
		clear(ss.rejected)
		if len(ss.holders) == 0 {
			continue
		}
		cands := make([]Candidate, 0, len(ss.holders))
		for id := range ss.holders {
			cands = append(cands, ar.candidate(id))
		}
		accepted, rejected := e.policy.Resolve(ss.seat.Capacity, cands)
		if len(accepted) > ss.seat.Capacity {
			return &InvariantError{Kind: InvariantCapacity, Round: round, Seat: key,
				Detail: fmt.Sprintf("policy accepted %d for capacity %d", len(accepted), ss.seat.Capacity)}
		}
		if len(accepted)+len(rejected) != len(cands) {
			return &InvariantError{Kind: InvariantUnknown, Round: round, Seat: key,
				Detail: fmt.Sprintf("policy returned %d ids for %d holders", len(accepted)+len(rejected), len(cands))}
		}
		for _, id := range rejected {
			if _, ok := ss.holders[id]; !ok {
				return &InvariantError{Kind: InvariantUnknown, Round: round, Seat: key, ApplicantID: id, Detail: "policy rejected a non-holder"}
			}
			ar.reject(id)
			st.rejections++
		}
		if len(rejected) > 0 {
			e.logger.Debugf("seat %s kept %d/%d, rejected %d", key, len(accepted), ss.seat.Capacity, len(rejected))
		}
	}
	return nil
}

// candidate describes holder id for the seat policy. Members of an active
// multi-member unit share their unit key; everyone else is a group of one.
func (ar *Arena) candidate(id int64) Candidate {
	a := ar.applicants[id]
	group := model.SingletonUnitPrefix + strconv.FormatInt(id, 10)
	if u := ar.unitOf[id]; u != nil && u.active() && u.multi() {
		group = "unit:" + u.key
	}
	return Candidate{ID: id, Group: group, Priority: a.Priority, SubPriority: a.SubPriority}
}

// reconcile keeps active units atomic across the seats of their members: a
// unit that is partially seated, or seated at more than one facility, gives
// up every hold so it can propose together again. When any member, held or
// not, has nothing left to propose to, the unit is dissolved instead and
// keeps its holds.
func (e *Engine) reconcile(ar *Arena, round int, st *roundStats) {
	for _, u := range ar.units {
		if !u.active() || !u.multi() {
			continue
		}
		var held []*model.Applicant
		free := 0
		stuck := false
		facilities := make(map[string]struct{})
		for _, id := range u.members {
			a := ar.applicants[id]
			if a.IsHeld() {
				held = append(held, a)
				facilities[a.Held.Facility] = struct{}{}
			} else {
				free++
			}
			if a.Exhausted() {
				stuck = true
			}
		}
		if len(held) == 0 || (free == 0 && len(facilities) == 1) {
			continue
		}
		if stuck {
			e.dissolve(ar, u, round, reasonExhausted, st)
			continue
		}
		for _, a := range held {
			ar.reject(a.ID)
			st.released++
		}
		e.logger.Debugf("unit %s split across seats, %d members released", u.key, len(held))
	}
}
