package matching

import (
	"github.com/kilianp07/seatmatch/core/logger"
	"github.com/kilianp07/seatmatch/core/model"
)

// BoostSiblingPreferences moves each applicant's known sibling facility to
// the front of its preference list, inserting it when absent. It returns the
// number of applicants whose list was rewritten.
func BoostSiblingPreferences(applicants []*model.Applicant, log logger.Logger) int {
	n := 0
	for _, a := range applicants {
		if !a.HasSiblingFacility() {
			continue
		}
		a.Preferences = boost(a.Preferences, a.SiblingFacility)
		n++
		if log != nil {
			log.Debugf("applicant %d: sibling facility %s moved to first preference", a.ID, a.SiblingFacility)
		}
	}
	return n
}

// boost removes the first occurrence of facility and prepends it.
func boost(prefs []string, facility string) []string {
	out := make([]string, 0, len(prefs)+1)
	out = append(out, facility)
	removed := false
	for _, p := range prefs {
		if p == facility && !removed {
			removed = true
			continue
		}
		out = append(out, p)
	}
	return out
}
