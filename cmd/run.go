package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/seatmatch/app"
	"github.com/kilianp07/seatmatch/config"
	"github.com/kilianp07/seatmatch/core/model"
	"github.com/kilianp07/seatmatch/dataset"
	"github.com/kilianp07/seatmatch/infra/logger"
	"github.com/kilianp07/seatmatch/pkg/export"
	"github.com/kilianp07/seatmatch/report"
)

type runFlags struct {
	data    string
	grade   string
	seed    uint64
	format  string
	timeout time.Duration
	serve   bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match the applicants of a dataset file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return matchCommand(cmd, runOpts, func(cfg *config.Config) (dataset.Dataset, error) {
			path := cfg.Data.Path
			if path == "" {
				return dataset.Dataset{}, fmt.Errorf("no dataset: set data.path or --data")
			}
			return dataset.Load(path)
		})
	},
}

var demoOpts runFlags

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Match the embedded demonstration dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return matchCommand(cmd, demoOpts, func(*config.Config) (dataset.Dataset, error) {
			return dataset.Demo(), nil
		})
	},
}

func init() {
	for _, c := range []struct {
		cmd  *cobra.Command
		opts *runFlags
	}{{runCmd, &runOpts}, {demoCmd, &demoOpts}} {
		f := c.cmd.Flags()
		f.StringVar(&c.opts.grade, "grade", "", "only match applicants of this grade")
		f.Uint64Var(&c.opts.seed, "seed", 0, "fallback random seed (0 keeps the configured seed)")
		f.StringVar(&c.opts.format, "format", "text", "output format: text, json, csv or html")
		f.DurationVar(&c.opts.timeout, "timeout", time.Minute, "abort waiting for the engine after this duration")
		f.BoolVar(&c.opts.serve, "serve", false, "keep serving Prometheus metrics after the run until interrupted")
		rootCmd.AddCommand(c.cmd)
	}
	runCmd.Flags().StringVar(&runOpts.data, "data", "", "dataset file (YAML or JSON)")
}

var formats = []string{"text", "json", "csv", "html"}

func matchCommand(cmd *cobra.Command, opts runFlags, load func(*config.Config) (dataset.Dataset, error)) error {
	if opts.format != "" && !slices.Contains(formats, opts.format) {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.data != "" {
		cfg.Data.Path = opts.data
	}
	if opts.grade != "" {
		cfg.Data.Grade = opts.grade
	}
	if opts.seed != 0 {
		cfg.Matching.Seed = opts.seed
	}
	ds, err := load(cfg)
	if err != nil {
		return err
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	srvCtx, cancelSrv := context.WithCancel(ctx)
	defer cancelSrv()
	srvDone := make(chan error, 1)
	go func() { srvDone <- svc.ServeMetrics(srvCtx) }()

	runCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	res, err := svc.Match(runCtx, ds)
	if err != nil {
		return err
	}
	if err := render(cmd.OutOrStdout(), opts.format, res, ds.FilterGrade(cfg.Data.Grade).Applicants); err != nil {
		return err
	}

	if opts.serve && cfg.Metrics.PrometheusAddr != "" {
		<-ctx.Done()
	}
	cancelSrv()
	return <-srvDone
}

func render(w io.Writer, format string, res *model.MatchResult, applicants []*model.Applicant) error {
	switch format {
	case "json":
		return export.WriteJSON(w, res.Assignments)
	case "csv":
		return export.WriteCSV(w, res.Assignments)
	case "html":
		return report.WriteHTML(w, res, report.Summarize(res, applicants))
	case "text", "":
		return report.WriteText(w, res, report.Summarize(res, applicants))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
