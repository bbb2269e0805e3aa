package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Logger is a thin wrapper around log/slog that prefixes every record
// with the String() of the subject emitting it, the same calling
// convention the teacher codebase uses throughout (core.Log.Warn(t,
// "message", "key", val)): the first argument is always the component
// logging the message, not part of the message itself.
type Logger struct {
	level Level
	sl    *slog.Logger
}

// Log is the process-wide logger. Every stage and table type logs
// through this singleton, matching the teacher's fw/core.Log usage.
var Log = NewLogger(LevelInfo)

// NewLogger constructs a Logger that writes to stderr at the given
// minimum level.
func NewLogger(level Level) *Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(level),
	})
	return &Logger{level: level, sl: slog.New(h)}
}

// SetLevel changes the minimum level at which records are emitted.
func (l *Logger) SetLevel(level Level) {
	l.level = level
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(level),
	})
	l.sl = slog.New(h)
}

func (l *Logger) log(level Level, subject fmt.Stringer, msg string, kv ...any) {
	args := make([]any, 0, len(kv)+2)
	args = append(args, "module", subject.String())
	args = append(args, kv...)
	l.sl.Log(context.Background(), slog.Level(level), msg, args...)
}

// Trace logs at TRACE level.
func (l *Logger) Trace(subject fmt.Stringer, msg string, kv ...any) {
	l.log(LevelTrace, subject, msg, kv...)
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(subject fmt.Stringer, msg string, kv ...any) {
	l.log(LevelDebug, subject, msg, kv...)
}

// Info logs at INFO level.
func (l *Logger) Info(subject fmt.Stringer, msg string, kv ...any) {
	l.log(LevelInfo, subject, msg, kv...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(subject fmt.Stringer, msg string, kv ...any) {
	l.log(LevelWarn, subject, msg, kv...)
}

// Error logs at ERROR level.
func (l *Logger) Error(subject fmt.Stringer, msg string, kv ...any) {
	l.log(LevelError, subject, msg, kv...)
}

// Fatal logs at FATAL level and terminates the process. Used only for
// startup/configuration failures (e.g. cannot bind a port) per the
// error handling policy: those are fatal, everything else is a logged
// drop or an explicit Nack.
func (l *Logger) Fatal(subject fmt.Stringer, msg string, kv ...any) {
	l.log(LevelFatal, subject, msg, kv...)
	os.Exit(1)
}
