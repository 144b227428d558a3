// Package logging provides a zerolog-backed implementation of core.Logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/Mo-to/go-async-gui/core"
)

// ZerologLogger adapts a zerolog.Logger to the core.Logger facade.
type ZerologLogger struct {
	log zerolog.Logger
}

var _ core.Logger = (*ZerologLogger)(nil)

// NewZerolog wraps an existing zerolog.Logger.
func NewZerolog(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log}
}

// NewConsole creates a logger writing human-readable output to stderr at the
// given level.
func NewConsole(level zerolog.Level) *ZerologLogger {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	return &ZerologLogger{log: log}
}

// NewWriter creates a JSON logger writing to w at the given level.
func NewWriter(w io.Writer, level zerolog.Level) *ZerologLogger {
	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &ZerologLogger{log: log}
}

// Debug logs a debug message
func (l *ZerologLogger) Debug(msg string, fields ...core.Field) {
	l.emit(l.log.Debug(), msg, fields)
}

// Info logs an info message
func (l *ZerologLogger) Info(msg string, fields ...core.Field) {
	l.emit(l.log.Info(), msg, fields)
}

// Warn logs a warning message
func (l *ZerologLogger) Warn(msg string, fields ...core.Field) {
	l.emit(l.log.Warn(), msg, fields)
}

// Error logs an error message
func (l *ZerologLogger) Error(msg string, fields ...core.Field) {
	l.emit(l.log.Error(), msg, fields)
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []core.Field) {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case error:
			ev = ev.AnErr(f.Key, v)
		case string:
			ev = ev.Str(f.Key, v)
		default:
			ev = ev.Interface(f.Key, v)
		}
	}
	ev.Msg(msg)
}
