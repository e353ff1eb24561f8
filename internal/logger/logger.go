// Package logger constructs the process-wide structured logger.
package logger

import (
	"github.com/sirupsen/logrus"
)

// New returns a JSON logger at the given level ("debug", "info", ...).
// An unparseable level falls back to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
