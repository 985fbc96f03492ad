package metrics

// Package metrics defines interfaces for recording matching runs. A sink
// must implement MetricsSink and may implement the optional recorders for
// round, fallback and dissolution events. Several sinks are combined with
// NewMultiSink; the factory helpers return a MultiSink automatically when
// multiple sinks are configured.
