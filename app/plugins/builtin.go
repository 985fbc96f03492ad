package plugins

import (
	"github.com/kilianp07/seatmatch/core/factory"
	"github.com/kilianp07/seatmatch/core/matching"
	"github.com/kilianp07/seatmatch/core/runlog"
	"github.com/kilianp07/seatmatch/infra/logger"
)

func init() {
	_ = RegisterFallback("none", func(map[string]any) (matching.FallbackStrategy, error) {
		return matching.NoopFallback{}, nil
	})
	_ = RegisterFallback("random", func(conf map[string]any) (matching.FallbackStrategy, error) {
		var c struct {
			Seed       uint64 `json:"seed"`
			RandomOnly bool   `json:"random_only"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		fb := matching.NewRandomFallback(matching.NewRandSource(c.Seed), logger.New("fallback"))
		fb.RandomOnly = c.RandomOnly
		return fb, nil
	})

	_ = RegisterStore("jsonl", func(conf map[string]any) (runlog.Store, error) {
		var c runlog.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.Backend = "jsonl"
		return runlog.Open(c)
	})
	_ = RegisterStore("sqlite", func(conf map[string]any) (runlog.Store, error) {
		var c runlog.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return runlog.NewSQLiteStore(c.Path)
	})
}
