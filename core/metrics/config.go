package metrics

import (
	"fmt"

	"github.com/macmarek/scheduling-assistant/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr, when set, serves /metrics on a dedicated listener in
	// serve mode. The API server always exposes /metrics as well.
	PrometheusAddr string `json:"prometheus_addr"`
}

// Validate checks that every sink names a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	return nil
}
