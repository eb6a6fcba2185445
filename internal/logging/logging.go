package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a logr.Logger that writes through entry. Messages
// logged at V(1) and above are only emitted when entry's logger is at
// debug level.
func NewLogger(entry *logrus.Entry) logr.Logger {
	verbosity := 0
	if entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		verbosity = 2
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			entry.WithField("logger", prefix).Info(args)
			return
		}
		entry.Info(args)
	}, funcr.Options{Verbosity: verbosity})
}
