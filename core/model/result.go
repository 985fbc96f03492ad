package model

import "time"

// UnrankedRank marks an assignment that did not come from the applicant's
// ranked list (fallback placement).
const UnrankedRank = -1

// Togetherness is the state of a sibling unit's stay-together constraint.
// The only transition is Active -> Dissolved.
type Togetherness int

const (
	TogethernessActive Togetherness = iota
	TogethernessDissolved
)

// String returns a human-readable representation of the state.
func (t Togetherness) String() string {
	switch t {
	case TogethernessActive:
		return "active"
	case TogethernessDissolved:
		return "dissolved"
	default:
		return "unknown"
	}
}

// Assignment is the final placement of one applicant.
type Assignment struct {
	ApplicantID     int64  `json:"applicant_id"`
	Name            string `json:"name"`
	DistrictID      string `json:"district_id,omitempty"`
	Grade           string `json:"grade"`
	Facility        string `json:"facility"`
	FacilityName    string `json:"facility_name,omitempty"`
	Rank            int    `json:"rank"`
	Priority        int    `json:"priority"`
	SubPriority     int64  `json:"sub_priority"`
	Unit            string `json:"unit"`
	FamilyKey       string `json:"family_key,omitempty"`
	SiblingFacility string `json:"sibling_facility,omitempty"`
	// AtSiblingFacility is true when the applicant landed at the facility
	// its sibling already attends.
	AtSiblingFacility bool `json:"at_sibling_facility"`
	// Round is the round in which the final hold was obtained; 0 for
	// fallback placements.
	Round    int  `json:"round"`
	Fallback bool `json:"fallback"`
}

// Ranked reports whether the assignment came from the ranked list.
func (a Assignment) Ranked() bool { return a.Rank != UnrankedRank }

// ConvergeReason explains why the round loop stopped.
type ConvergeReason string

const (
	ConvergedAllSeated  ConvergeReason = "all_seated"
	ConvergedExhausted  ConvergeReason = "exhausted"
	ConvergedNoProgress ConvergeReason = "no_progress"
	ConvergedRoundCap   ConvergeReason = "round_cap"
)

// MatchResult is the outcome of one engine run.
type MatchResult struct {
	RunID          string         `json:"run_id,omitempty"`
	Assignments    []Assignment   `json:"assignments"`
	Unmatched      []*Applicant   `json:"unmatched"`
	Rounds         int            `json:"rounds"`
	Converged      ConvergeReason `json:"converged"`
	HitRoundCap    bool           `json:"hit_round_cap"`
	DissolvedUnits []string       `json:"dissolved_units,omitempty"`
	FallbackPlaced int            `json:"fallback_placed"`
	Elapsed        time.Duration  `json:"elapsed"`
}

// AssignmentFor returns the assignment of the given applicant.
func (r *MatchResult) AssignmentFor(id int64) (Assignment, bool) {
	for _, a := range r.Assignments {
		if a.ApplicantID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

// UnmatchedIDs returns the ids of unmatched applicants.
func (r *MatchResult) UnmatchedIDs() []int64 {
	ids := make([]int64, 0, len(r.Unmatched))
	for _, a := range r.Unmatched {
		ids = append(ids, a.ID)
	}
	return ids
}
