package model

import (
	"fmt"
	"strconv"
)

// Applicant is a student applying for a seat in a given grade.
//
// Preferences and Cursor are mutated by the matching engine during a run, so
// every run needs its own copy of the records (see CloneApplicants).
type Applicant struct {
	ID         int64
	Name       string
	DistrictID string
	Grade      string
	// Priority is the priority tier; higher wins.
	Priority int
	// SubPriority breaks ties inside a tier (lottery number); higher wins.
	SubPriority int64
	// FamilyKey groups siblings applying together. Empty means no family.
	FamilyKey string
	// SiblingFacility is the facility an enrolled sibling already attends.
	SiblingFacility string
	// Preferences lists facility codes, most preferred first.
	Preferences []string
	// Cursor is the index of the next preference to propose to.
	Cursor int
	// Held is the seat currently holding the applicant, if any.
	Held SeatKey
	// Unit is the togetherness unit the applicant was grouped into.
	Unit string
}

// HasFamily reports whether the applicant belongs to a sibling family.
func (a *Applicant) HasFamily() bool { return a.FamilyKey != "" }

// HasSiblingFacility reports whether a sibling's current facility is known.
func (a *Applicant) HasSiblingFacility() bool { return a.SiblingFacility != "" }

// SingletonUnitPrefix marks the unit key of an applicant without a family.
// Family keys may not start with it.
const SingletonUnitPrefix = "#"

// IsHeld reports whether the applicant tentatively holds a seat.
func (a *Applicant) IsHeld() bool { return !a.Held.IsZero() }

// Exhausted reports whether every preference has been proposed to.
func (a *Applicant) Exhausted() bool { return a.Cursor >= len(a.Preferences) }

// NextPreference returns the facility under the cursor.
func (a *Applicant) NextPreference() (string, bool) {
	if a.Exhausted() {
		return "", false
	}
	return a.Preferences[a.Cursor], true
}

// UnitKey returns the key used to group the applicant with its siblings: the
// family key when present, "#" and the applicant id otherwise.
func (a *Applicant) UnitKey() string {
	if a.HasFamily() {
		return a.FamilyKey
	}
	return SingletonUnitPrefix + strconv.FormatInt(a.ID, 10)
}

// Rank returns the 1-based position of facility in the preference list, or
// UnrankedRank when the facility is not listed.
func (a *Applicant) Rank(facility string) int {
	for i, f := range a.Preferences {
		if f == facility {
			return i + 1
		}
	}
	return UnrankedRank
}

// DisplayName returns the applicant name or a generated label.
func (a *Applicant) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("applicant %d", a.ID)
}

// Clone returns a deep copy with the run state reset.
func (a *Applicant) Clone() *Applicant {
	c := *a
	c.Preferences = append([]string(nil), a.Preferences...)
	c.Cursor = 0
	c.Held = SeatKey{}
	c.Unit = ""
	return &c
}

// CloneApplicants returns fresh copies suitable for a new run.
func CloneApplicants(in []*Applicant) []*Applicant {
	out := make([]*Applicant, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}
