// Package zap adapts go.uber.org/zap to menusync.Logger.
package zap

import (
	"go.uber.org/zap"

	menusync "github.com/unkn0wn-root/menusync"
)

var _ menusync.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New builds a production (JSON, stderr) logger at the named level ("" => info).
func New(level string) (ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return ZapLogger{}, err
		}
		cfg.Level = lvl
	}
	l, err := cfg.Build()
	if err != nil {
		return ZapLogger{}, err
	}
	return ZapLogger{L: l}, nil
}

func (z ZapLogger) Debug(msg string, f menusync.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f menusync.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f menusync.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f menusync.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f menusync.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
