// Package metrics defines the sinks that record scheduling runs. Sinks like
// PromSink and InfluxSink live in infra/metrics and register themselves with
// the factory here; NewMetricsSink returns a MultiSink automatically when
// several sinks are configured.
package metrics
