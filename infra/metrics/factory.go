package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/seatmatch/core/factory"
	coremetrics "github.com/kilianp07/seatmatch/core/metrics"
)

// InfluxConfig is the conf block of an influx entry under metrics.sinks.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// Validate requires the endpoint and bucket; the org may be empty on
// InfluxDB 1.8 compatibility endpoints.
func (c InfluxConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("influx: url required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("influx: bucket required")
	}
	return nil
}

var builtinSinks = map[string]factory.Factory[coremetrics.MetricsSink]{
	"nop": func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	},
	// Prometheus collectors live on the default registerer served by
	// StartPromServer, so repeated entries share them.
	"prometheus": func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	},
	"influx": func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	},
}

func init() {
	for name, f := range builtinSinks {
		_ = coremetrics.RegisterMetricsSink(name, f)
	}
}
