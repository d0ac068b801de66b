package log

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func New(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)

	var badLevel bool
	if level != "" {
		if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
			cfg.Level.SetLevel(zap.DebugLevel)
			badLevel = true
		}
	}

	l, err := cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	if badLevel {
		l.Warn("bad LOG_LEVEL, fallback to debug", zap.String("level", level))
	}
	return l, nil
}

func Must(level string) *zap.Logger {
	l, err := New(level)
	if err != nil {
		panic(err)
	}
	return l
}

// Email logs a stable fingerprint of the address instead of the address.
func Email(email string) zap.Field {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return zap.String("user", fmt.Sprintf("%x", sum[:8]))
}
