// Package logger provides the zerolog-backed implementation of the core
// logger contract.
package logger

import corelogger "github.com/macmarek/scheduling-assistant/core/logger"

type Logger = corelogger.Logger

// NopLogger discards everything. Tests and library callers that pass no
// logger get this one.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Infow(string, map[string]any)  {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a zerolog logger tagged with component. APP_ENV=dev switches
// to console output and LOG_LEVEL sets the minimum level.
func New(component string) Logger {
	return NewZerologLogger(component)
}
