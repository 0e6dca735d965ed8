package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/entrhq/stepwise/pkg/types"
)

// setupTestDir points the package at a temporary directory and resets the
// run id.
func setupTestDir(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()

	initMu.Lock()
	origLogDir, origInitErr := logDir, initErr
	initMu.Unlock()
	origRunID := runID

	SetLogDirectory(tempDir)
	runID = ""
	runIDOnce = sync.Once{}

	t.Cleanup(func() {
		SetLogDirectory(origLogDir)
		initMu.Lock()
		initErr = origInitErr
		initMu.Unlock()
		runID = origRunID
		runIDOnce = sync.Once{}
	})
	return tempDir
}

func readLog(t *testing.T, l *Logger) string {
	t.Helper()
	content, err := os.ReadFile(l.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestNewLogger(t *testing.T) {
	dir := setupTestDir(t)

	logger, err := NewLogger("test-component")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.component != "test-component" {
		t.Errorf("Expected component 'test-component', got %q", logger.component)
	}
	if logger.RunID() == "" {
		t.Error("Expected non-empty run ID")
	}
	if filepath.Dir(logger.LogPath()) != dir {
		t.Errorf("Expected log in %s, got %s", dir, logger.LogPath())
	}
	if _, err := os.Stat(logger.LogPath()); os.IsNotExist(err) {
		t.Errorf("Log file does not exist at %s", logger.LogPath())
	}
}

func TestLoggerFormatting(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.Debugf("Debug message %d", 1)
	logger.Infof("Info message")
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	content := readLog(t, logger)
	for _, pattern := range []string{
		"[test] [DEBUG] Debug message 1",
		"[test] [INFO] Info message",
		"[test] [WARN] Warning message",
		"[test] [ERROR] Error message",
	} {
		if !strings.Contains(content, pattern) {
			t.Errorf("Log content missing expected pattern: %q\nContent:\n%s", pattern, content)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("filtered")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.SetLevel(ParseLevel("warn"))
	logger.Infof("dropped")
	logger.Warnf("kept")

	content := readLog(t, logger)
	if strings.Contains(content, "dropped") {
		t.Errorf("Info entry written below warn level:\n%s", content)
	}
	if !strings.Contains(content, "[WARN] kept") {
		t.Errorf("Warn entry missing:\n%s", content)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"verbose": LevelDebug,
		"normal":  LevelInfo,
		"":        LevelInfo,
		"warn":    LevelWarn,
		"quiet":   LevelError,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMultipleComponents(t *testing.T) {
	setupTestDir(t)

	logger1, err := NewLogger("component1")
	if err != nil {
		t.Fatalf("Failed to create logger1: %v", err)
	}
	defer logger1.Close()

	logger2, err := NewLogger("component2")
	if err != nil {
		t.Fatalf("Failed to create logger2: %v", err)
	}
	defer logger2.Close()

	if logger1.RunID() != logger2.RunID() {
		t.Errorf("Expected same run ID, got %q and %q", logger1.RunID(), logger2.RunID())
	}
	if logger1.LogPath() != logger2.LogPath() {
		t.Errorf("Expected same log path, got %q and %q", logger1.LogPath(), logger2.LogPath())
	}

	logger1.Infof("Message from component1")
	logger2.Infof("Message from component2")

	content := readLog(t, logger1)
	if !strings.Contains(content, "[component1]") || !strings.Contains(content, "[component2]") {
		t.Errorf("Log missing component entries:\n%s", content)
	}
}

func TestStream(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("run")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	sink := logger.Stream()
	sink(types.NewPushEvent("login", 0))
	sink(types.NewAppendEvent("info", "typed user", 1))
	sink(types.NewFailureEvent(errors.New("boom"), 1))
	sink(types.NewPopEvent("login", 0))

	content := readLog(t, logger)
	for _, pattern := range []string{
		"[run] [DEBUG] > login",
		"[run] [DEBUG]   info typed user",
		"[run] [ERROR]   failure: boom",
		"[run] [DEBUG] < login",
	} {
		if !strings.Contains(content, pattern) {
			t.Errorf("Log content missing expected pattern: %q\nContent:\n%s", pattern, content)
		}
	}
}

func TestRunIDStable(t *testing.T) {
	setupTestDir(t)

	if RunID() != RunID() || RunID() == "" {
		t.Errorf("Expected a stable non-empty run ID, got %q", RunID())
	}
}

func TestLogDirectory(t *testing.T) {
	dir := setupTestDir(t)

	got, err := LogDirectory()
	if err != nil {
		t.Fatalf("Failed to get log directory: %v", err)
	}
	if got != dir {
		t.Errorf("Expected %s, got %s", dir, got)
	}
}

func TestLoggerClose(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestLogPathFormat(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	fileName := filepath.Base(logger.LogPath())
	if !strings.HasSuffix(fileName, "-stepwise.log") {
		t.Errorf("Expected log file to end with '-stepwise.log', got %q", fileName)
	}
	if runPart := strings.TrimSuffix(fileName, "-stepwise.log"); !strings.Contains(runPart, "-") {
		t.Errorf("Expected run ID part to be a UUID, got %q", runPart)
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Errorf("nothing")
	if l.LogPath() != "" {
		t.Errorf("Expected no log path, got %q", l.LogPath())
	}
}
