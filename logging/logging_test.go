package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		debugOn   bool
		infoOn    bool
		errorOnly bool
	}{
		{"debug console", Config{Level: "debug", Format: "console"}, true, true, false},
		{"info json", Config{Level: "info", Format: "json"}, false, true, false},
		{"error stderr", Config{Level: "error", Output: "stderr"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.cfg, "test")
			if l == nil {
				t.Fatal("New() returned nil")
			}
			if got := l.Core().Enabled(zapcore.DebugLevel); got != tt.debugOn {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugOn)
			}
			if got := l.Core().Enabled(zapcore.InfoLevel); got != tt.infoOn {
				t.Errorf("info enabled = %v, want %v", got, tt.infoOn)
			}
			if tt.errorOnly && l.Core().Enabled(zapcore.WarnLevel) {
				t.Error("warn should be disabled at error level")
			}
		})
	}
}

func TestDefault(t *testing.T) {
	l := Default()
	if !l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("default logger should log at info")
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("default logger should not log debug")
	}
}
