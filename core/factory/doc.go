// Package factory is the named-module registry behind every pluggable part of
// seatmatch: metrics sinks, fallback strategies and run history backends are
// chosen by a type name in the configuration and built from the settings
// nested under it.
//
// A history backend, for instance, registers under the name used by
// history.backend and decodes its settings with the same json tags the
// config file uses:
//
//	stores := factory.NewRegistry[runlog.Store]()
//	_ = stores.Register("sqlite", func(conf map[string]any) (runlog.Store, error) {
//		var c runlog.Config
//		if err := factory.Decode(conf, &c); err != nil {
//			return nil, err
//		}
//		return runlog.NewSQLiteStore(c.Path)
//	})
//	st, err := stores.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "runs.db"}})
//
// Decode accepts strings for numeric, boolean and duration fields, so
// K_-prefixed environment overrides decode like typed YAML.
package factory
