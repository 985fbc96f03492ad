package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/seatmatch/config"
	coremon "github.com/kilianp07/seatmatch/core/monitoring"
	"github.com/kilianp07/seatmatch/infra/logger"
	inframon "github.com/kilianp07/seatmatch/infra/monitoring"
)

const defaultConfig = "config.yaml"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "seatmatch",
	Short:         "Sibling-aware school seat matching",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (default config.yaml when present)")
}

// Execute runs the CLI.
func Execute() error {
	defer coremon.Flush(2 * time.Second)
	return rootCmd.Execute()
}

// loadConfig reads the configuration, sets the log level and installs the
// error monitor.
func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		if _, err := os.Stat(defaultConfig); err == nil {
			path = defaultConfig
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	return cfg, nil
}
