// Package logrus adapts a logrus entry to the application logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/example/badstu-booker/internal/log"
)

type logger struct {
	*logrus.Entry
}

// NewLogrus returns a log.Logger backed by logrus.
func NewLogrus(l *logrus.Entry) log.Logger {
	return logger{Entry: l}
}

func (l logger) WithValues(kv log.Kv) log.Logger {
	newLogger := l.Entry.WithFields(kv)
	return NewLogrus(newLogger)
}

// Options configure the logrus backed logger.
type Options struct {
	Debug bool
	JSON  bool
}

// New builds a logrus logger writing to the standard logrus output.
func New(opts Options) log.Logger {
	l := logrus.New()
	if opts.Debug {
		l.SetLevel(logrus.DebugLevel)
	}
	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return NewLogrus(logrus.NewEntry(l))
}
