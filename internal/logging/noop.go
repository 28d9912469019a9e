package logging

import "context"

// NoOpLogger discards all log entries.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(context.Context, string, ...interface{}) {}
func (n *NoOpLogger) Info(context.Context, string, ...interface{})  {}
func (n *NoOpLogger) Warn(context.Context, string, ...interface{})  {}
func (n *NoOpLogger) Error(context.Context, string, ...interface{}) {}
func (n *NoOpLogger) With(...interface{}) Logger                    { return n }

// NewNoOpLogger returns a Logger that discards all log entries.
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

var _ Logger = (*NoOpLogger)(nil)
