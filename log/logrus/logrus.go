// Package logrus adapts sirupsen/logrus to menusync.Logger.
package logrus

import (
	"io"

	"github.com/sirupsen/logrus"

	menusync "github.com/unkn0wn-root/menusync"
)

var _ menusync.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New returns a JSON logger writing to w at the named level ("" => info).
func New(w io.Writer, level string) (LogrusLogger, error) {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return LogrusLogger{}, err
		}
		l.SetLevel(lvl)
	}
	return LogrusLogger{E: logrus.NewEntry(l)}, nil
}

func (l LogrusLogger) Debug(msg string, f menusync.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f menusync.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f menusync.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f menusync.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
