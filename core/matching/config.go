package matching

import "fmt"

// DefaultMaxRounds bounds the round loop.
const DefaultMaxRounds = 1000

// Config defines matching-related settings.
type Config struct {
	MaxRounds int `json:"max_rounds"`
	// Seed feeds the fallback random source. Zero seeds from the clock.
	Seed uint64 `json:"seed"`
	// Fallback names the fallback strategy ("random" or "none").
	Fallback string `json:"fallback"`
	// RandomOnly skips the remaining-preferences pass of the random
	// fallback for individuals.
	RandomOnly bool `json:"random_only"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MaxRounds == 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.Fallback == "" {
		c.Fallback = "random"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive, got %d", c.MaxRounds)
	}
	return nil
}
