package service

import (
	"io"

	"github.com/sirupsen/logrus"
)

func loggerOrDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
