package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarn},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitTextAndLevelFiltering(t *testing.T) {
	defer Disable()

	var buf bytes.Buffer
	if err := Init(Config{Level: LevelInfo, Format: "text", Output: &buf}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	LogFlatten(3, 1)
	LogFileProcessing("prog.py")

	out := buf.String()
	if strings.Contains(out, "Flattening complete") {
		t.Errorf("debug message leaked at info level:\n%s", out)
	}
	if !strings.Contains(out, "file=prog.py") {
		t.Errorf("expected file attribute in output:\n%s", out)
	}
}

func TestInitJSON(t *testing.T) {
	defer Disable()

	var buf bytes.Buffer
	if err := Init(Config{Level: LevelDebug, Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	LogLayout(2, 8)

	out := buf.String()
	if !strings.Contains(out, `"variables":2`) || !strings.Contains(out, `"bytes":8`) {
		t.Errorf("unexpected json output: %s", out)
	}
}

func TestDisabledLoggerIsSilent(t *testing.T) {
	Disable()
	// Must not panic without Init.
	Debug("x")
	Info("x")
	Warn("x")
	Error("x")
}
