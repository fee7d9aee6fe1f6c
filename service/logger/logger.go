package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type loggerContextKey string

const contextKey loggerContextKey = "logger.entry"

var defaultEntry = logrus.NewEntry(logrus.StandardLogger())

// InitWithDefaults configures the standard logger from the environment. JSON output is
// used everywhere except local development.
func InitWithDefaults(environment string) {
	if environment == "local" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)
}

// For returns the log entry carried by ctx, falling back to the default entry. Passing a
// nil context is allowed and returns the default entry.
func For(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return defaultEntry
	}
	if entry, ok := ctx.Value(contextKey).(*logrus.Entry); ok {
		return entry
	}
	return defaultEntry
}

// NewContextWithFields returns a context whose log entry carries the given fields in
// addition to any fields already present.
func NewContextWithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return context.WithValue(ctx, contextKey, For(ctx).WithFields(fields))
}
