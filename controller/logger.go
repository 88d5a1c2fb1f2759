package controller

import "log"

// Logger is the minimal capability a Controller needs for diagnostic
// output. log.Logger satisfies it directly via Printf.
type Logger interface {
	Printf(format string, args ...any)
}

// defaultLogger wraps the standard logger's default instance.
type defaultLogger struct{}

func (defaultLogger) Printf(format string, args ...any) { log.Printf(format, args...) }

// DefaultLogger is a Logger backed by log.Default().
var DefaultLogger Logger = defaultLogger{}

// NopLogger discards everything. Controllers default to this: logging
// is opt-in, not ambient.
type NopLogger struct{}

func (NopLogger) Printf(string, ...any) {}
