// Package slog adapts log/slog to menusync.Logger.
package slog

import (
	"context"
	"io"
	stdslog "log/slog"

	menusync "github.com/unkn0wn-root/menusync"
)

var _ menusync.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New returns a JSON logger writing to w at the named level ("" => info).
func New(w io.Writer, level string) (Logger, error) {
	var lvl stdslog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return Logger{}, err
		}
	}
	return Logger{L: stdslog.New(stdslog.NewJSONHandler(w, &stdslog.HandlerOptions{Level: lvl}))}, nil
}

func (s Logger) Debug(msg string, f menusync.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelDebug, msg, attrs(f)...)
}
func (s Logger) Info(msg string, f menusync.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelInfo, msg, attrs(f)...)
}
func (s Logger) Warn(msg string, f menusync.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelWarn, msg, attrs(f)...)
}
func (s Logger) Error(msg string, f menusync.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelError, msg, attrs(f)...)
}

func attrs(f menusync.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
