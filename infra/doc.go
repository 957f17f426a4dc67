// Package infra contains technical adapters: the MQTT publisher and request
// intake, Prometheus and InfluxDB metrics sinks, the SQLite KPI store, Sentry
// monitoring and the zerolog logger. These packages should depend only on
// the interfaces defined in the core packages.
package infra
