package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/macmarek/scheduling-assistant/core/factory"
	coremetrics "github.com/macmarek/scheduling-assistant/core/metrics"
)

// Sink types accepted in the metrics.sinks list.
const (
	SinkNop        = "nop"
	SinkPrometheus = "prometheus"
	SinkInflux     = "influx"
)

// InfluxConf is the conf block of an influx sink. An empty URL keeps run
// records in memory only.
type InfluxConf struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

func init() {
	builtins := map[string]factory.Factory[coremetrics.MetricsSink]{
		SinkNop:        newNopSink,
		SinkPrometheus: newDefaultPromSink,
		SinkInflux:     newInfluxSink,
	}
	for name, f := range builtins {
		if err := coremetrics.RegisterMetricsSink(name, f); err != nil {
			panic(err)
		}
	}
}

func newNopSink(map[string]any) (coremetrics.MetricsSink, error) {
	return coremetrics.NopSink{}, nil
}

// newDefaultPromSink registers on the default registry, which /metrics serves.
func newDefaultPromSink(map[string]any) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

func newInfluxSink(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c InfluxConf
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
}
