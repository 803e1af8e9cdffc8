// Package logger provides structured logging for the guild server.
// Every state change the encounter core makes should be traceable through this.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides structured logging with context.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a new logger configured from LOG_LEVEL and LOG_FORMAT.
func NewLogger() *Logger {
	base := logrus.New()

	level, err := logrus.ParseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	base.SetOutput(os.Stdout)

	return &Logger{entry: logrus.NewEntry(base)}
}

// NewWithOutput creates a debug-level text logger writing to w.
func NewWithOutput(w io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return &Logger{entry: logrus.NewEntry(base)}
}

// NewDiscard returns a logger that drops everything. Used by tests.
func NewDiscard() *Logger {
	return NewWithOutput(io.Discard)
}

// With returns a child logger carrying an extra structured field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// Debug logs low-level diagnostics (stale timer callbacks and the like).
func (l *Logger) Debug(msg string) {
	l.entry.Debug(msg)
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.entry.Info(msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.entry.Warn(msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.entry.Error(msg)
}

// Event logs a specific game event with the actor that caused it.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.entry.WithFields(logrus.Fields{
		"event": eventType,
		"actor": actorID,
	}).Info(details)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
