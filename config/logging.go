package config

import (
	"fmt"
	"strings"
)

// LogConfig sets the global log level.
type LogConfig struct {
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		return nil
	}
	return fmt.Errorf("unknown level %s", c.Level)
}

// DataConfig locates the input dataset.
type DataConfig struct {
	// Path is a YAML or JSON dataset file.
	Path string `json:"path"`
	// Grade restricts the run to applicants of one grade.
	Grade string `json:"grade"`
	// FillDefaultPreferences gives applicants without preferences every
	// facility offering their grade.
	FillDefaultPreferences bool `json:"fill_default_preferences"`
}
