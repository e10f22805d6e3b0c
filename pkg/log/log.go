package log

import (
	"time"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
		DisableColors:   false,
		ForceColors:     true,
	}
}

// Print returns a bare entry for process-level messages.
func Print() *logrus.Entry {
	return logger.WithFields(logrus.Fields{})
}

// Op returns an entry tagged with the operation scope, e.g. "session", "webhook", "sink".
func Op(op string) *logrus.Entry {
	return logger.WithField("op", op)
}

// Session returns an operation entry additionally tagged with the session id.
func Session(op string, sessionID string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"op":      op,
		"session": sessionID,
	})
}

// SetLevel adjusts global verbosity ("debug" for --verbose, "error" for --quiet).
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	logger.SetLevel(parsed)
}

// Logger exposes the underlying logger for components that attach their own fields.
func Logger() *logrus.Logger {
	return logger
}
