// Package logging builds the process logger and routes slog through it.
package logging

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/vivaneiona/tabextract/config"
)

// New builds a zap logger from cfg. A nil cfg yields an info-level
// production logger.
func New(cfg *config.LogConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = config.NewDefaultLogConfig()
	}
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", cfg.Level)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return l, nil
}

// Install makes l the global zap logger and the slog default. It returns a
// restore function.
func Install(l *zap.Logger) func() {
	undo := zap.ReplaceGlobals(l)
	prev := slog.Default()
	slog.SetDefault(Slog(l))
	return func() {
		undo()
		slog.SetDefault(prev)
	}
}

// Slog returns an slog.Logger writing through l.
func Slog(l *zap.Logger) *slog.Logger {
	return slog.New(zapslog.NewHandler(l.Core(), zapslog.WithCaller(true)))
}
