package internal

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func captureLog(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	originalLevel := logLevel
	SetLogOutput(&buf)
	SetLogLevel(level)
	t.Cleanup(func() {
		SetLogOutput(os.Stderr)
		logLevel = originalLevel
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	originalLevel := logLevel
	defer func() { logLevel = originalLevel }()

	SetVerbose(true)
	if logLevel != LogLevelDebug {
		t.Errorf("SetVerbose(true) logLevel = %v, want LogLevelDebug", logLevel)
	}

	SetVerbose(false)
	if logLevel != LogLevelWarn {
		t.Errorf("SetVerbose(false) logLevel = %v, want LogLevelWarn", logLevel)
	}
}

func TestLogFiltering(t *testing.T) {
	buf := captureLog(t, LogLevelWarn)

	LogError("boom %d", 1)
	LogWarn("careful")
	LogInfo("hidden info")
	LogDebug("hidden debug")

	out := buf.String()
	for _, want := range []string{"[ERROR] boom 1", "[WARN] careful"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	for _, hidden := range []string{"hidden info", "hidden debug"} {
		if strings.Contains(out, hidden) {
			t.Errorf("log output should not contain %q at warn level", hidden)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"error", LogLevelError, false},
		{"WARN", LogLevelWarn, false},
		{"", LogLevelWarn, false},
		{" info ", LogLevelInfo, false},
		{"debug", LogLevelDebug, false},
		{"chatty", LogLevelWarn, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogLevels(t *testing.T) {
	if LogLevelError >= LogLevelWarn {
		t.Error("LogLevelError should be less than LogLevelWarn")
	}
	if LogLevelWarn >= LogLevelInfo {
		t.Error("LogLevelWarn should be less than LogLevelInfo")
	}
	if LogLevelInfo >= LogLevelDebug {
		t.Error("LogLevelInfo should be less than LogLevelDebug")
	}
}
