package runlog

import "fmt"

// Config selects and configures the run history backend.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "runs.log"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("history backend must be jsonl or sqlite, got %q", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("history rotation settings must not be negative")
	}
	return nil
}

// Open creates the store described by c.
func Open(c Config) (Store, error) {
	switch c.Backend {
	case "sqlite":
		return NewSQLiteStore(c.Path)
	case "jsonl", "":
		if c.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
		}
		return NewJSONLStore(c.Path)
	}
	return nil, fmt.Errorf("unknown history backend %q", c.Backend)
}
