// Package logging builds the zap logger used throughout coopdoor.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging settings.
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
	Output string `yaml:"output"` // stdout or stderr
}

// New creates a logger from cfg. Every entry carries the service name and
// version.
func New(cfg Config, version string) *zap.Logger {
	out := zapcore.Lock(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = zapcore.Lock(os.Stderr)
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "console", "text":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(ec)
	default:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	}

	core := zapcore.NewCore(encoder, out, parseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller()).With(
		zap.String("service", "coopdoor"),
		zap.String("version", version),
	)
}

// parseLevel converts a level name to a zapcore.Level, defaulting to info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Default returns a JSON info-level logger for use before configuration is
// loaded.
func Default() *zap.Logger {
	return New(Config{Level: "info", Format: "json"}, "dev")
}
