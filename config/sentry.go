package config

import (
	"fmt"
	"os"

	"github.com/getsentry/sentry-go"
)

// SentryConfig controls where engine invariant violations and panics are
// reported. An empty DSN disables reporting.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
	// Tags are attached to every reported event, e.g. the district running
	// the match.
	Tags map[string]string `json:"tags"`
}

// Enabled reports whether a DSN is configured.
func (c SentryConfig) Enabled() bool { return c.DSN != "" }

// SetDefaults takes the environment from APP_ENV when none is configured.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = os.Getenv("APP_ENV")
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
}

// Validate checks the DSN syntax so a typo fails at startup rather than
// silently dropping reports.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate must be within [0,1]")
	}
	if c.Enabled() {
		if _, err := sentry.NewDsn(c.DSN); err != nil {
			return fmt.Errorf("dsn: %w", err)
		}
	}
	return nil
}
