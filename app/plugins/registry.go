package plugins

import (
	"github.com/kilianp07/seatmatch/core/factory"
	"github.com/kilianp07/seatmatch/core/matching"
	"github.com/kilianp07/seatmatch/core/runlog"
)

// Fallbacks holds the fallback strategies selectable by matching.fallback.
var Fallbacks = factory.NewRegistry[matching.FallbackStrategy]()

// Stores holds the run history backends selectable by history.backend.
var Stores = factory.NewRegistry[runlog.Store]()

func RegisterFallback(name string, f factory.Factory[matching.FallbackStrategy]) error {
	return Fallbacks.Register(name, f)
}

func RegisterStore(name string, f factory.Factory[runlog.Store]) error {
	return Stores.Register(name, f)
}

// NewFallback builds the strategy named by cfg.Fallback.
func NewFallback(cfg matching.Config) (matching.FallbackStrategy, error) {
	return Fallbacks.Create(factory.ModuleConfig{
		Type: cfg.Fallback,
		Conf: map[string]any{"seed": cfg.Seed, "random_only": cfg.RandomOnly},
	})
}

// NewStore builds the history store named by cfg.Backend.
func NewStore(cfg runlog.Config) (runlog.Store, error) {
	return Stores.Create(factory.ModuleConfig{
		Type: cfg.Backend,
		Conf: map[string]any{
			"path":         cfg.Path,
			"max_size_mb":  cfg.MaxSizeMB,
			"max_backups":  cfg.MaxBackups,
			"max_age_days": cfg.MaxAgeDays,
		},
	})
}
