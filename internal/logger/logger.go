// Package logger provides the process-wide logger used by all packages.
// Verbose mode is toggled once by the CLI before any command runs.
package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return l
}

// SetVerbose enables debug-level output.
func SetVerbose(verbose bool) {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log output, used by tests to keep output quiet.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Debug logs a formatted message at debug level.
func Debug(format string, args ...any) {
	log.Debugf(format, args...)
}

// Info logs a formatted message at info level.
func Info(format string, args ...any) {
	log.Infof(format, args...)
}

// Warn logs a formatted message at warn level.
func Warn(format string, args ...any) {
	log.Warnf(format, args...)
}

// Error logs a formatted message at error level.
func Error(format string, args ...any) {
	log.Errorf(format, args...)
}

// WithFields returns a structured entry for call sites that log several
// values at once.
func WithFields(fields map[string]any) *logrus.Entry {
	return log.WithFields(logrus.Fields(fields))
}
