package diagram

import "log"

// Logger is the logging sink the core writes diagnostics to. Parse
// anomalies, persistence failures and per-entity reconciliation errors are
// reported here and never escalate to panics.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts a function to the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf calls the wrapped function.
func (f LoggerFunc) Printf(format string, args ...any) { f(format, args...) }

// DefaultLogger returns a Logger backed by the standard library logger.
func DefaultLogger() Logger {
	return LoggerFunc(log.Printf)
}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return LoggerFunc(func(string, ...any) {})
}

// EnsureLogger substitutes the default logger for nil.
func EnsureLogger(l Logger) Logger {
	if l == nil {
		return DefaultLogger()
	}
	return l
}
