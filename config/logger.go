package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls console logging. Level is one of "none",
// "normal", or "debug".
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// Prepare builds the configured zap logger. Output below the error level
// goes to stdout, errors go to stderr, so piping extraction output stays
// clean.
func (c LoggerConfig) Prepare() (*zap.Logger, error) {
	var low zapcore.Level
	switch c.Level {
	case "", "none":
		return zap.NewNop(), nil
	case "normal":
		low = zapcore.InfoLevel
	case "debug":
		low = zapcore.DebugLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", c.Level)
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(ec)

	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return low <= lvl && lvl < zapcore.ErrorLevel
	})
	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lowPriority),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), highPriority),
	)
	return zap.New(core), nil
}
