// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger used across the ad server. Key-value
// pairs follow the message as alternating keys and values.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	Fatal(msg string, kv ...any)
	Sync() error
}

// zapLogger wraps a zap sugared logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

// New creates a new logger at the default info level.
func New() Logger {
	return NewWithLevel("info")
}

// NewWithLevel creates a new logger with a specific level.
func NewWithLevel(level string) Logger {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "info":
		lvl = zapcore.InfoLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	case "fatal":
		lvl = zapcore.FatalLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		return &noOpLogger{}
	}

	return &zapLogger{s: l.Sugar()}
}

// NoOp returns a no-op logger.
func NoOp() Logger {
	return &noOpLogger{}
}

// NoLog is a no-op logger instance.
var NoLog = NoOp()

func (l *zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
func (l *zapLogger) Fatal(msg string, kv ...any) { l.s.Fatalw(msg, kv...) }
func (l *zapLogger) Sync() error                 { return l.s.Sync() }

// noOpLogger is a logger that does nothing.
type noOpLogger struct{}

func (n *noOpLogger) Debug(msg string, kv ...any) {}
func (n *noOpLogger) Info(msg string, kv ...any)  {}
func (n *noOpLogger) Warn(msg string, kv ...any)  {}
func (n *noOpLogger) Error(msg string, kv ...any) {}
func (n *noOpLogger) Fatal(msg string, kv ...any) {}
func (n *noOpLogger) Sync() error                 { return nil }
