package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "nil config falls back to defaults", config: nil},
		{name: "explicit debug level", config: &Config{Level: LevelDebug, Output: &bytes.Buffer{}}},
		{name: "explicit info level", config: &Config{Level: LevelInfo, Output: &bytes.Buffer{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Fatal("NewLogger() returned nil")
			}
		})
	}
}

func TestLoggerWithComponentTagsLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	tagged := logger.WithComponent("gwt")
	tagged.Info("broadcast cycle complete", "winners", 3)

	output := buf.String()
	if !strings.Contains(output, "[gwt]") {
		t.Errorf("expected [gwt] component tag in output, got: %s", output)
	}
	if !strings.Contains(output, "broadcast cycle complete") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "winners=3") {
		t.Errorf("expected key=value pair winners=3 in output, got: %s", output)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should be suppressed")
	logger.Info("should also be suppressed")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below the configured level, got: %s", buf.String())
	}

	logger.Warn("visible warning")
	if !strings.Contains(buf.String(), "visible warning") {
		t.Errorf("expected warning to pass the level filter, got: %s", buf.String())
	}
}

func TestLoggerPrintfVariants(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Errorf("agent %d out of bounds", 99)
	if !strings.Contains(buf.String(), "agent 99 out of bounds") {
		t.Errorf("expected formatted message, got: %s", buf.String())
	}
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))
	t.Cleanup(func() { SetDefault(NewLogger(nil)) })

	Debug("debug message", "key", "value")
	output := buf.String()
	if !strings.Contains(output, "debug message") {
		t.Errorf("expected debug message, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected key=value, got: %s", output)
	}

	buf.Reset()
	Info("info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("expected info message, got: %s", buf.String())
	}

	buf.Reset()
	Warn("warning message")
	if !strings.Contains(buf.String(), "warning message") {
		t.Errorf("expected warning message, got: %s", buf.String())
	}

	buf.Reset()
	Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected error message, got: %s", buf.String())
	}
}
