// Package logging builds the structured zap logger used across the pipeline.
//
// Every stage receives a *zap.Logger explicitly (via constructor injection); there is
// no package-global logger. This package provides field helpers for a shared
// vocabulary so stage logs can be grepped consistently: "stage", "func_id",
// "callsite_id", "edge_count", "duration_ms". Stages may add other fields (the
// index stage logs "func_count").
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls verbosity independent of zap's own level names, so callers of
// New don't need to import zapcore themselves.
type Level int

const (
	LevelInfo Level = iota
	LevelDebug
	LevelQuiet
)

// New builds a *zap.Logger configured for CLI use: human-readable console encoding,
// ISO8601 timestamps, and a level derived from the --verbose/--quiet flags.
func New(level Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true

	switch level {
	case LevelDebug:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case LevelQuiet:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Stage returns a child logger scoped to a named pipeline stage, matching the
// "stage" field every log line in this package carries.
func Stage(logger *zap.Logger, name string) *zap.Logger {
	return logger.With(zap.String("stage", name))
}

// FuncID returns a zap.Field for the canonical string form of a function identifier.
// Callers pass the already-stringified id to avoid an import cycle with internal/ids.
func FuncID(id string) zap.Field { return zap.String("func_id", id) }

// CallsiteID returns a zap.Field for a callsite identifier's canonical string form.
func CallsiteID(id string) zap.Field { return zap.String("callsite_id", id) }

// EdgeCount returns a zap.Field carrying an edge/fact count.
func EdgeCount(n int) zap.Field { return zap.Int("edge_count", n) }

// DurationMS returns a zap.Field carrying an elapsed-time measurement in milliseconds.
func DurationMS(ms int64) zap.Field { return zap.Int64("duration_ms", ms) }
