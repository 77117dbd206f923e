// Package log wraps zap behind a small context-aware interface.
package log

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the structured logging calls the watcher makes.
// Implementations are safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, args ...any)
	Debugf(ctx context.Context, template string, args ...any)
	Info(ctx context.Context, args ...any)
	Infof(ctx context.Context, template string, args ...any)
	Warn(ctx context.Context, args ...any)
	Warnf(ctx context.Context, template string, args ...any)
	Error(ctx context.Context, args ...any)
	Errorf(ctx context.Context, template string, args ...any)
}

// Init builds a Logger that writes to w.
func Init(cfg ZapConfig, w zapcore.WriteSyncer) Logger {
	logger := &zapLogger{cfg: &cfg}
	logger.init(w)
	return logger
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &zapLogger{sugarLogger: zap.NewNop().Sugar()}
}

// Open resolves cfg.File and returns a Logger writing to it. An empty path
// selects the XDG state directory, "-" selects stderr. The returned func
// flushes and closes the destination.
func Open(cfg ZapConfig) (Logger, func() error, error) {
	if cfg.File == StderrFile {
		logger := Init(cfg, zapcore.AddSync(os.Stderr))
		return logger, func() error { return nil }, nil
	}

	path := cfg.File
	if path == "" {
		resolved, err := xdg.StateFile(filepath.Join(appName, logFileName))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve log path: %w", err)
		}
		path = resolved
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := Init(cfg, zapcore.AddSync(f))
	closeFn := func() error {
		if zl, ok := logger.(*zapLogger); ok {
			_ = zl.sugarLogger.Sync()
		}
		return f.Close()
	}
	return logger, closeFn, nil
}
