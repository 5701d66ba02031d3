// Package logger defines the logging interface used by the HTTP client and its retry loop.
// The concrete implementation is backed by zerolog; callers construct one logger at
// process start and hand it to every client they build.
package logger

import "time"

// Logger creates leveled events. A client never terminates the process, so there is no
// fatal level.
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	// WithFields returns a child logger that adds fields to every event.
	WithFields(fields map[string]any) Logger
}

// LogEvent is a single entry under construction. Nothing is written until Msg or Msgf.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Bool(key string, value bool) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
}
