// Package report summarises and renders the outcome of a matching run.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/seatmatch/core/model"
)

// Summary aggregates the figures printed after a run.
type Summary struct {
	Applicants     int
	Matched        int
	Unmatched      int
	Rounds         int
	Converged      model.ConvergeReason
	FallbackPlaced int
	// Families counts sibling families with at least two applicants.
	Families int
	// FamiliesTogether counts families whose members were all seated at the
	// same facility.
	FamiliesTogether  int
	AtSiblingFacility int
	MeanRank          float64
	StdDevRank        float64
	// RankHistogram maps a ranked choice to the number of applicants who got it.
	RankHistogram map[int]int
	Unranked      int
}

// Summarize computes the run summary. applicants is the input pool, used to
// size families even when some members ended unmatched.
func Summarize(res *model.MatchResult, applicants []*model.Applicant) Summary {
	s := Summary{
		Applicants:     len(applicants),
		Matched:        len(res.Assignments),
		Unmatched:      len(res.Unmatched),
		Rounds:         res.Rounds,
		Converged:      res.Converged,
		FallbackPlaced: res.FallbackPlaced,
		RankHistogram:  make(map[int]int),
	}
	var ranks []float64
	for _, a := range res.Assignments {
		if a.AtSiblingFacility {
			s.AtSiblingFacility++
		}
		if !a.Ranked() {
			s.Unranked++
			continue
		}
		s.RankHistogram[a.Rank]++
		ranks = append(ranks, float64(a.Rank))
	}
	if len(ranks) > 0 {
		s.MeanRank, s.StdDevRank = stat.MeanStdDev(ranks, nil)
		if math.IsNaN(s.StdDevRank) {
			s.StdDevRank = 0
		}
	}

	members := make(map[string][]int64)
	for _, a := range applicants {
		if a.HasFamily() {
			members[a.FamilyKey] = append(members[a.FamilyKey], a.ID)
		}
	}
	for _, ids := range members {
		if len(ids) < 2 {
			continue
		}
		s.Families++
		if together(res, ids) {
			s.FamiliesTogether++
		}
	}
	return s
}

func together(res *model.MatchResult, ids []int64) bool {
	facility := ""
	for _, id := range ids {
		a, ok := res.AssignmentFor(id)
		if !ok {
			return false
		}
		if facility != "" && a.Facility != facility {
			return false
		}
		facility = a.Facility
	}
	return true
}

// WriteText renders families, individuals, unmatched applicants and totals.
func WriteText(w io.Writer, res *model.MatchResult, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p := func(format string, args ...any) {
		_, _ = fmt.Fprintf(tw, format, args...)
	}

	families, individuals := split(res.Assignments)
	for _, fam := range families {
		p("FAMILY %s\n", fam[0].FamilyKey)
		for _, a := range fam {
			p("  %s\n", line(a))
		}
	}
	if len(families) > 0 {
		p("\n")
	}
	if len(individuals) > 0 {
		p("INDIVIDUALS\n")
		for _, a := range individuals {
			p("  %s\n", line(a))
		}
		p("\n")
	}

	p("UNMATCHED\n")
	if len(res.Unmatched) == 0 {
		p("  none\n")
	}
	for _, a := range res.Unmatched {
		p("  %s\tgrade %s\tno assignment\n", a.DisplayName(), a.Grade)
	}
	p("\n")

	p("Rounds:\t%d (%s)\n", s.Rounds, s.Converged)
	p("Processing time:\t%s\n", res.Elapsed)
	p("Matched:\t%d/%d\n", s.Matched, s.Applicants)
	p("Unmatched:\t%d\n", s.Unmatched)
	p("Fallback placements:\t%d\n", s.FallbackPlaced)
	p("Sibling families:\t%d\n", s.Families)
	p("Families kept together:\t%d\n", s.FamiliesTogether)
	p("At sibling facility:\t%d\n", s.AtSiblingFacility)
	p("Mean rank:\t%.2f (sd %.2f)\n", s.MeanRank, s.StdDevRank)
	p("Rank histogram:\t%s\n", histogram(s))
	if len(res.DissolvedUnits) > 0 {
		p("Dissolved units:\t%s\n", strings.Join(res.DissolvedUnits, ", "))
	}
	return tw.Flush()
}

func line(a model.Assignment) string {
	choice := fmt.Sprintf("choice #%d", a.Rank)
	if !a.Ranked() {
		choice = "unranked"
	}
	facility := a.Facility
	if a.FacilityName != "" {
		facility = fmt.Sprintf("%s (%s)", a.FacilityName, a.Facility)
	}
	extra := ""
	if a.Fallback {
		extra = "\tfallback"
	}
	return fmt.Sprintf("%s\tgrade %s\t-> %s\t%s\tpriority %d%s", a.Name, a.Grade, facility, choice, a.Priority, extra)
}

// split groups family assignments by family key, families ordered by their
// highest priority then key, and returns the rest ordered by id.
func split(as []model.Assignment) ([][]model.Assignment, []model.Assignment) {
	byKey := make(map[string][]model.Assignment)
	var individuals []model.Assignment
	for _, a := range as {
		if a.FamilyKey == "" {
			individuals = append(individuals, a)
			continue
		}
		byKey[a.FamilyKey] = append(byKey[a.FamilyKey], a)
	}
	families := make([][]model.Assignment, 0, len(byKey))
	best := make(map[string]int, len(byKey))
	for k, fam := range byKey {
		sort.Slice(fam, func(i, j int) bool { return fam[i].ApplicantID < fam[j].ApplicantID })
		for _, a := range fam {
			if a.Priority > best[k] {
				best[k] = a.Priority
			}
		}
		families = append(families, fam)
	}
	sort.Slice(families, func(i, j int) bool {
		ki, kj := families[i][0].FamilyKey, families[j][0].FamilyKey
		if best[ki] != best[kj] {
			return best[ki] > best[kj]
		}
		return ki < kj
	})
	sort.Slice(individuals, func(i, j int) bool { return individuals[i].ApplicantID < individuals[j].ApplicantID })
	return families, individuals
}

func histogram(s Summary) string {
	ranks := make([]int, 0, len(s.RankHistogram))
	for r := range s.RankHistogram {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	parts := make([]string, 0, len(ranks)+1)
	for _, r := range ranks {
		parts = append(parts, fmt.Sprintf("#%d=%d", r, s.RankHistogram[r]))
	}
	if s.Unranked > 0 {
		parts = append(parts, fmt.Sprintf("unranked=%d", s.Unranked))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
