package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_DefaultsToInfoLevel(t *testing.T) {
	log := New()

	if log == nil {
		t.Fatal("expected logger to be created")
	}
	if log.GetLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", log.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("expected JSON format")
	}
	if ParseFormat("text") != FormatText {
		t.Error("expected text format")
	}
	if ParseFormat("") != FormatText {
		t.Error("expected text format by default")
	}
}

func TestSetLevel_FiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(&buf, slog.LevelInfo, FormatText)

	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}

	log.SetLevel(slog.LevelDebug)
	log.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected debug output after SetLevel, got %q", buf.String())
	}
}

func TestJSONFormat_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(&buf, slog.LevelInfo, FormatJSON)

	log.Info("session started", "session_id", "s1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "session started" {
		t.Errorf("expected msg field, got %v", entry["msg"])
	}
	if entry["session_id"] != "s1" {
		t.Errorf("expected session_id attribute, got %v", entry["session_id"])
	}
}

func TestWith_SharesLevelAndHTTPSwitch(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithOptions(&buf, slog.LevelWarn, FormatText)
	child := parent.With("component", "ledger")

	child.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected child to honor parent level, got %q", buf.String())
	}

	parent.SetLevel(slog.LevelInfo)
	child.Info("kept")
	if !strings.Contains(buf.String(), "component=ledger") {
		t.Errorf("expected child attributes in output, got %q", buf.String())
	}

	parent.EnableHTTPLogging()
	if !child.IsHTTPLoggingEnabled() {
		t.Error("expected child to see HTTP logging switch")
	}
}

func TestHTTPLogging_Toggle(t *testing.T) {
	log := Discard()

	if log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging disabled by default")
	}
	log.EnableHTTPLogging()
	if !log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging enabled")
	}
	log.DisableHTTPLogging()
	if log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging disabled")
	}
}
