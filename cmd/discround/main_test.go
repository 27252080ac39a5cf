package main

import (
	"log/slog"
	"testing"

	"github.com/abrezinsky/discround/internal/logger"
)

func TestCycleLogLevel(t *testing.T) {
	appLog := logger.Discard()
	appLog.SetLevel(slog.LevelDebug)

	want := []slog.Level{slog.LevelInfo, slog.LevelWarn, slog.LevelError, slog.LevelDebug}
	for _, level := range want {
		cycleLogLevel(appLog)
		if got := appLog.GetLevel(); got != level {
			t.Fatalf("expected %v, got %v", level, got)
		}
	}
}

func TestToggleHTTPLogging(t *testing.T) {
	appLog := logger.Discard()

	toggleHTTPLogging(appLog)
	if !appLog.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging enabled")
	}
	toggleHTTPLogging(appLog)
	if appLog.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging disabled")
	}
}
