package matching

import "sort"

// Candidate is a tentative holder of a seat as seen by a SeatPolicy.
type Candidate struct {
	ID          int64
	Group       string
	Priority    int
	SubPriority int64
}

// SeatPolicy decides which tentative holders a seat keeps.
type SeatPolicy interface {
	// Resolve returns the ids to keep and the ids to reject. Every candidate
	// must appear in exactly one of the two lists and at most capacity ids
	// may be kept.
	Resolve(capacity int, candidates []Candidate) (accepted, rejected []int64)
}

// GroupPriorityPolicy ranks candidate groups by their best priority tier,
// then best sub-priority, then lowest member id, and keeps whole groups
// while they fit. A group that does not fit is rejected as a block; smaller
// groups ranked below it may still be accepted.
type GroupPriorityPolicy struct{}

type candidateGroup struct {
	key         string
	ids         []int64
	maxPriority int
	maxSub      int64
	minID       int64
}

// Resolve implements SeatPolicy.
func (GroupPriorityPolicy) Resolve(capacity int, candidates []Candidate) ([]int64, []int64) {
	groups := rankGroups(candidates)
	var accepted, rejected []int64
	for _, g := range groups {
		if len(accepted)+len(g.ids) <= capacity {
			accepted = append(accepted, g.ids...)
		} else {
			rejected = append(rejected, g.ids...)
		}
	}
	return accepted, rejected
}

func rankGroups(candidates []Candidate) []*candidateGroup {
	byKey := make(map[string]*candidateGroup)
	var groups []*candidateGroup
	for _, c := range candidates {
		g, ok := byKey[c.Group]
		if !ok {
			g = &candidateGroup{key: c.Group, maxPriority: c.Priority, maxSub: c.SubPriority, minID: c.ID}
			byKey[c.Group] = g
			groups = append(groups, g)
		}
		g.ids = append(g.ids, c.ID)
		if c.Priority > g.maxPriority {
			g.maxPriority = c.Priority
		}
		if c.SubPriority > g.maxSub {
			g.maxSub = c.SubPriority
		}
		if c.ID < g.minID {
			g.minID = c.ID
		}
	}
	for _, g := range groups {
		sort.Slice(g.ids, func(i, j int) bool { return g.ids[i] < g.ids[j] })
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.maxPriority != b.maxPriority {
			return a.maxPriority > b.maxPriority
		}
		if a.maxSub != b.maxSub {
			return a.maxSub > b.maxSub
		}
		return a.minID < b.minID
	})
	return groups
}
