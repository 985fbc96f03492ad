package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/seatmatch/app"
	"github.com/kilianp07/seatmatch/core/runlog"
	"github.com/kilianp07/seatmatch/infra/logger"
)

var historyOpts struct {
	since     time.Duration
	applicant int64
	facility  string
	json      bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past matching runs",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.DurationVar(&historyOpts.since, "since", 0, "only runs newer than this duration")
	f.Int64Var(&historyOpts.applicant, "applicant", 0, "only runs involving this applicant id")
	f.StringVar(&historyOpts.facility, "facility", "", "only runs placing someone at this facility")
	f.BoolVar(&historyOpts.json, "json", false, "print records as JSON lines")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg, app.WithLogger(logger.New("history")))
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	q := runlog.RunQuery{ApplicantID: historyOpts.applicant, Facility: historyOpts.facility}
	if historyOpts.since > 0 {
		q.Start = time.Now().Add(-historyOpts.since)
	}
	recs, err := svc.History(cmd.Context(), q)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if historyOpts.json {
		enc := json.NewEncoder(out)
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tTIME\tGRADE\tROUNDS\tCONVERGED\tASSIGNED\tUNMATCHED")
	for _, r := range recs {
		grade := r.Grade
		if grade == "" {
			grade = "all"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%d\n", r.RunID, r.Timestamp.Format(time.RFC3339),
			grade, r.Rounds, r.Converged, len(r.Assignments), len(r.Unmatched))
	}
	return tw.Flush()
}
