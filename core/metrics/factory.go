package metrics

import (
	"fmt"
	"strings"

	"github.com/kilianp07/seatmatch/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewMetricsSink builds the sinks listed under metrics.sinks. No entry gives
// a NopSink, one entry its sink, several a MultiSink in configuration order.
// When an entry fails, sinks already built are closed.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	sinks := make([]MetricsSink, 0, len(cfgs))
	for i, c := range cfgs {
		if !sinkRegistry.Has(c.Type) {
			closeSinks(sinks)
			return nil, fmt.Errorf("metrics sink %d: unknown type %q (available: %s)", i, c.Type, strings.Join(SinkTypes(), ", "))
		}
		s, err := sinkRegistry.Create(c)
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("metrics sink %d (%s): %w", i, c.Type, err)
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}

func closeSinks(sinks []MetricsSink) {
	NewMultiSink(sinks...).Close()
}
