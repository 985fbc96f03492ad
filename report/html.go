package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/seatmatch/core/model"
)

// WriteHTML renders the rank distribution and the facility occupancy of a
// run as an HTML page of bar charts.
func WriteHTML(w io.Writer, res *model.MatchResult, s Summary) error {
	page := components.NewPage()
	page.PageTitle = "seatmatch run " + res.RunID
	page.AddCharts(rankChart(s), facilityChart(res))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func rankChart(s Summary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Achieved choice", Subtitle: fmt.Sprintf("mean %.2f, sd %.2f", s.MeanRank, s.StdDevRank)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Choice"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Applicants"}),
	)
	ranks := make([]int, 0, len(s.RankHistogram))
	for r := range s.RankHistogram {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	var x []string
	var y []opts.BarData
	for _, r := range ranks {
		x = append(x, fmt.Sprintf("#%d", r))
		y = append(y, opts.BarData{Value: s.RankHistogram[r]})
	}
	if s.Unranked > 0 {
		x = append(x, "unranked")
		y = append(y, opts.BarData{Value: s.Unranked})
	}
	bar.SetXAxis(x).AddSeries("Applicants", y)
	return bar
}

func facilityChart(res *model.MatchResult) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Placements per facility"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Applicants"}),
	)
	ranked := make(map[string]int)
	fallback := make(map[string]int)
	set := make(map[string]struct{})
	for _, a := range res.Assignments {
		set[a.Facility] = struct{}{}
		if a.Fallback {
			fallback[a.Facility]++
		} else {
			ranked[a.Facility]++
		}
	}
	facilities := make([]string, 0, len(set))
	for f := range set {
		facilities = append(facilities, f)
	}
	sort.Strings(facilities)
	var main, fb []opts.BarData
	for _, f := range facilities {
		main = append(main, opts.BarData{Value: ranked[f]})
		fb = append(fb, opts.BarData{Value: fallback[f]})
	}
	bar.SetXAxis(facilities).
		AddSeries("Matched", main).
		AddSeries("Fallback", fb)
	return bar
}
