// Package log is the daemon's logger, a thin package-level wrapper around a
// zap sugared logger. Until Init is called every call is discarded, so tests
// and library code may log freely.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var (
	base  = zap.NewNop()
	sugar = base.Sugar()
)

// Init replaces the package logger. Debug selects zap's development
// configuration with debug level enabled.
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		l, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("init zap logger: %w", err)
	}
	Use(l)
	return nil
}

// Use installs l as the package logger.
func Use(l *zap.Logger) {
	base = l
	sugar = l.Sugar()
}

// Logger returns the underlying zap logger.
func Logger() *zap.Logger {
	return base
}

// Sync flushes buffered entries.
func Sync() {
	_ = base.Sync()
}

func Debugf(template string, args ...interface{}) {
	sugar.Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	sugar.Debugw(msg, keysAndValues...)
}

func Infof(template string, args ...interface{}) {
	sugar.Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	sugar.Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	sugar.Warnw(msg, keysAndValues...)
}

func Errorf(template string, args ...interface{}) {
	sugar.Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	sugar.Errorw(msg, keysAndValues...)
}

func Fatalf(template string, args ...interface{}) {
	sugar.Fatalf(template, args...)
}
