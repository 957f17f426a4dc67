// Package logger is the logging contract shared by the scheduler packages.
// Implementations live in infra/logger.
package logger

// Logger is a leveled logger. The *w variants attach fields to the entry;
// run summaries are logged with Infow so that run_id and outcome stay
// queryable.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Infow(msg string, fields map[string]any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
