package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetState(t *testing.T) {
	t.Helper()
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState(t)

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"connection": "debug",
			"discovery":  "warn",
		},
	})

	tests := []struct {
		module      string
		wantDebug   bool
		wantInfo    bool
		wantWarn    bool
		description string
	}{
		{"connection", true, true, true, "connection module overridden to debug"},
		{"discovery", false, false, true, "discovery module overridden to warn"},
		{"other", false, true, true, "other module falls back to the global level"},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			logger := GetLogger(tt.module)
			handler := logger.Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState(t)

	loggerBefore := GetLogger("discovery")
	handlerBefore := loggerBefore.Handler()

	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should not have debug enabled")
	}

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"discovery": "debug",
		},
	})

	loggerAfter := GetLogger("discovery")

	if loggerBefore != loggerAfter {
		t.Error("logger should be cached: same pointer before and after Initialize")
	}
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("cached logger should have debug enabled after Initialize updates its LevelVar")
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"verbose", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"severe", slog.LevelError, false},
		{"fatal", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			} else if *got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestNMOSLevelForSlog(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  int
	}{
		{slog.LevelError, NMOSLevelError},
		{slog.LevelWarn, NMOSLevelWarning},
		{slog.LevelInfo, NMOSLevelInfo},
		{slog.LevelDebug, NMOSLevelVerbose},
		{slog.Level(-20), NMOSLevelDevel},
	}

	for _, tt := range tests {
		if got := nmosLevelForSlog(tt.level); got != tt.want {
			t.Errorf("nmosLevelForSlog(%v) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestBufferHandlerRecordsNMOSLevelAndCallback(t *testing.T) {
	resetState(t)
	Initialize(Config{Level: "debug", Format: "text"})

	var captured []LogEntry
	SetLogCallback(func(entry LogEntry) { captured = append(captured, entry) })
	defer SetLogCallback(nil)

	logger := GetLogger("connection")
	logger.Warn("sender activation delayed", "sender_id", "sink-0")

	entries := GetBuffer().ReadAll()
	if len(entries) == 0 {
		t.Fatal("expected at least one buffered entry")
	}
	last := entries[len(entries)-1]
	if last.Module != "connection" {
		t.Errorf("Module = %q, want %q", last.Module, "connection")
	}
	if last.NMOSLevel != NMOSLevelWarning {
		t.Errorf("NMOSLevel = %d, want %d", last.NMOSLevel, NMOSLevelWarning)
	}
	if last.Attributes["sender_id"] != "sink-0" {
		t.Errorf("Attributes[sender_id] = %v, want sink-0", last.Attributes["sender_id"])
	}

	if len(captured) == 0 {
		t.Fatal("expected the log callback to fire")
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	multi := NewMultiHandler(debugHandler, infoHandler)
	logger := slog.New(multi).With("module", "test")

	logger.Debug("debug only message")

	output := buf.String()
	if !strings.Contains(output, "debug only message") {
		t.Errorf("debug message not written via MultiHandler: %s", output)
	}
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("expected 1 debug message, got %d: %s", count, output)
	}
}
