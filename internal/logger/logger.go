// Package logger builds the logrus logger shared by every component.
package logger

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr. Format is "text" or "json"; an
// unknown level falls back to info with a warning.
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	configure(log, level, format)
	return log
}

// NewWithOutput is New writing to w.
func NewWithOutput(w io.Writer, level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	configure(log, level, format)
	return log
}

func configure(log *logrus.Logger, level, format string) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		log.Warnf("unknown log level %q, using info", level)
		return
	}
	log.SetLevel(lvl)
}
