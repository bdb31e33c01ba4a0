// Package logger holds the process-wide diagnostic logger. Diagnostics
// are separate from the telemetry records the pipeline emits: records go
// to the configured output file, diagnostics go here.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

// Init builds the global sugared logger at the given level. Unparseable
// levels fall back to info rather than failing start-up.
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = z.Sugar()
	return nil
}

// L returns the global sugared logger, initializing at info level when
// Init has not run.
func L() *zap.SugaredLogger {
	if logger == nil {
		_ = Init("info")
	}
	return logger
}
