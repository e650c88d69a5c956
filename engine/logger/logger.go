// Package logger holds the structured logger shared by the engine and all of its sub-packages.
package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that discards every record. Enabled returns false so callers
// skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by the engine. By default the engine produces no log output.
// Passing nil restores the silent default. SetLogger is safe for concurrent use.
//
// Log levels used by the engine:
//   - slog.LevelDebug: buffer sizes, attribute locations, pipeline variants
//   - slog.LevelInfo: lifecycle events (context acquired, program linked, setup finished)
//   - slog.LevelWarn: skipped draws, unknown uniforms, ignored bindings
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger. Sub-packages call this rather than holding their own
// copy so that a later SetLogger call is picked up everywhere.
//
// Returns:
//   - *slog.Logger: the active logger
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
