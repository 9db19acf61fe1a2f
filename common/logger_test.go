package common

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppLogger_LogFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := &AppLogger{
		level:  LevelWarn,
		output: &buf,
	}
	logger.logger = newTestLogger(&buf)

	logger.Debug("debug message")
	logger.Info("info message")

	if buf.Len() > 0 {
		t.Error("Debug/Info messages should be filtered when level is Warn")
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "WARN") {
		t.Error("Warn message should be logged")
	}

	buf.Reset()
	logger.Error("error message")
	if !strings.Contains(buf.String(), "ERROR") {
		t.Error("Error message should be logged")
	}
}

func TestAppLogger_LogFormatting(t *testing.T) {
	var buf bytes.Buffer

	logger := &AppLogger{
		level:  LevelDebug,
		output: &buf,
	}
	logger.logger = newTestLogger(&buf)

	logger.Info("Test message with %s", "formatting")

	output := buf.String()
	if !strings.Contains(output, time.Now().Format("2006/01/02")) {
		t.Error("Log should contain date in YYYY/MM/DD format")
	}
	if !strings.Contains(output, "[INFO]") {
		t.Error("Log should contain level indicator")
	}
	if !strings.Contains(output, "logger_test.go") {
		t.Errorf("Log should name the calling file, got %q", output)
	}
	if !strings.Contains(output, "Test message with formatting") {
		t.Error("Log should contain formatted message")
	}
}

func TestAppLogger_With(t *testing.T) {
	var buf bytes.Buffer

	logger := &AppLogger{level: LevelDebug, output: &buf}
	logger.logger = newTestLogger(&buf)

	logger.With("vpn").Debug("state %s", "Connected")

	output := buf.String()
	if !strings.Contains(output, "[vpn] state Connected") {
		t.Errorf("component line = %q, want [vpn] prefix", output)
	}
	if !strings.Contains(output, "logger_test.go") {
		t.Errorf("component logger should report caller, got %q", output)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "<empty>"},
		{"abc", "***"},
		{"sk-live-1234567890", "********7890"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Redact(tt.in); got != tt.want {
				t.Errorf("Redact(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if !strings.HasSuffix(dir, ConfigDirName) {
		t.Errorf("GetConfigDir() = %v, should end with %v", dir, ConfigDirName)
	}
	if !FileExists(dir) {
		t.Error("GetConfigDir() should create the directory")
	}
}

func TestWrapError(t *testing.T) {
	wrapped := WrapError(ErrNotConnected, "additional context")

	if !strings.Contains(wrapped.Error(), "additional context") {
		t.Error("WrapError should include additional context")
	}
	if !errors.Is(wrapped, ErrNotConnected) {
		t.Error("WrapError should unwrap to the original error")
	}
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestTypedErrors_Unwrap(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name string
		err  error
		text string
	}{
		{"install", &InstallError{Err: base}, "prerequisite setup failed: boom"},
		{"connect", &ConnectError{Profile: "sg-udp", Err: base}, "connect sg-udp: boom"},
		{"disconnect", &DisconnectError{Err: base}, "disconnect: boom"},
		{"store", &StoreError{Tier: "keyring", Op: "write", Err: base}, "keyring write: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.text {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.text)
			}
			if !errors.Is(tt.err, base) {
				t.Error("typed error should unwrap to its cause")
			}
		})
	}
}

func TestRotatingFile_RotatesOnOpen(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	largeContent := strings.Repeat("x", 1024*1024)
	if err := os.WriteFile(logFile, []byte(largeContent), 0600); err != nil {
		t.Fatal(err)
	}

	f, err := openRotatingFile(logFile, 512*1024, 2)
	if err != nil {
		t.Fatalf("openRotatingFile() error = %v", err)
	}
	defer f.Close()

	if info, err := os.Stat(logFile); err != nil || info.Size() != 0 {
		t.Error("log file should be empty after rotation")
	}

	matches, _ := filepath.Glob(filepath.Join(tempDir, "test.log.*.gz"))
	if len(matches) != 1 {
		t.Errorf("backups = %d, want 1", len(matches))
	}
}

func TestRotatingFile_RotatesWhileWriting(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	f, err := openRotatingFile(logFile, 100, 2)
	if err != nil {
		t.Fatalf("openRotatingFile() error = %v", err)
	}
	defer f.Close()

	line := []byte(strings.Repeat("y", 59) + "\n")
	for i := 0; i < 8; i++ {
		if _, err := f.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if info, _ := os.Stat(logFile); info.Size() > 100 {
		t.Errorf("active file size = %d, want <= 100", info.Size())
	}
	matches, _ := filepath.Glob(filepath.Join(tempDir, "test.log.*"))
	if len(matches) != 2 {
		t.Errorf("backups = %d, want 2 after pruning", len(matches))
	}
}

func TestAppLogger_FileOutput(t *testing.T) {
	dir := t.TempDir()
	logger := &AppLogger{level: LevelInfo, maxFileSize: defaultMaxFileSize, maxBackups: 1}

	if err := logger.EnableFileLogging(dir); err != nil {
		t.Fatalf("EnableFileLogging() error = %v", err)
	}
	logger.Info("written to %s", "file")
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file = %q", data)
	}
}

func newTestLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(buf, "", 0)
}
