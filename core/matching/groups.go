package matching

import (
	"sort"

	"github.com/kilianp07/seatmatch/core/model"
)

// unit is a set of applicants that should land at the same facility.
type unit struct {
	key string
	// members are applicant ids in ascending order.
	members []int64
	state   model.Togetherness
}

func (u *unit) active() bool { return u.state == model.TogethernessActive }

// multi reports whether togetherness constrains more than one applicant.
func (u *unit) multi() bool { return len(u.members) > 1 }

type unitIndex struct {
	family bool
	key    string
}

// BuildUnits partitions applicants into togetherness units. Applicants
// without a family key form singleton units keyed by their own id; applicants
// sharing a family key form one unit. Each applicant's Unit field is set to
// its unit key. Units are returned ordered by their lowest member id and do
// not depend on input order.
func BuildUnits(applicants []*model.Applicant) [][]int64 {
	units := buildUnits(applicants)
	out := make([][]int64, len(units))
	for i, u := range units {
		out[i] = append([]int64(nil), u.members...)
	}
	return out
}

func buildUnits(applicants []*model.Applicant) []*unit {
	byKey := make(map[unitIndex]*unit)
	var units []*unit
	for _, a := range applicants {
		idx := unitIndex{family: a.HasFamily(), key: a.UnitKey()}
		u, ok := byKey[idx]
		if !ok {
			u = &unit{key: idx.key, state: model.TogethernessActive}
			byKey[idx] = u
			units = append(units, u)
		}
		u.members = append(u.members, a.ID)
		a.Unit = u.key
	}
	for _, u := range units {
		sort.Slice(u.members, func(i, j int) bool { return u.members[i] < u.members[j] })
	}
	sort.Slice(units, func(i, j int) bool { return units[i].members[0] < units[j].members[0] })
	return units
}
