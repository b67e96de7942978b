// Package zlog is the module's thin wrapper around zap, used the same
// way the corpus's storage packages log: a package-level logger and
// free functions taking structured fields, so call sites never build a
// *zap.Logger themselves.
package zlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	log *zap.Logger
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	log = l
}

// SetLogger replaces the package logger, for tests and for cmd/zheapctl
// to install a console-friendly encoder.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

func get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(msg string, fields ...zap.Field) {
	get().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	get().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	get().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	get().Error(msg, fields...)
}

// Sync flushes buffered log entries. Command entry points should defer
// it; library callers embedding the engine in a larger process are
// expected to call zap's own Sync on whatever logger they installed.
func Sync() error {
	return get().Sync()
}
