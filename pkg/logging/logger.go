// Package logging writes diagnostic logs for stepwise components.
//
// All components of one process share a run id and a single file,
// ~/.stepwise/logs/<run-id>-stepwise.log. The run log tree is the
// user-facing record of a run; this file is for debugging drivers and the
// CLI.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/types"
)

// LogDirEnv overrides the log directory.
const LogDirEnv = "STEPWISE_LOG_DIR"

// Level orders log entries by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a configured verbosity to the lowest level written.
func ParseLevel(verbosity string) Level {
	switch strings.ToLower(verbosity) {
	case "debug", "verbose":
		return LevelDebug
	case "quiet", "error":
		return LevelError
	case "warn":
		return LevelWarn
	default:
		return LevelInfo
	}
}

// Logger writes timestamped entries for one component.
type Logger struct {
	runID     string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	min       Level
	closeOnce sync.Once
}

var (
	runID     string
	runIDOnce sync.Once

	logDir  string
	initMu  sync.Mutex
	initErr error
)

func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// SetLogDirectory makes later loggers write under dir.
func SetLogDirectory(dir string) {
	initMu.Lock()
	defer initMu.Unlock()
	logDir, initErr = dir, nil
}

func initLogDirectory() (string, error) {
	initMu.Lock()
	defer initMu.Unlock()

	if logDir == "" {
		if dir := os.Getenv(LogDirEnv); dir != "" {
			logDir = dir
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			logDir = filepath.Join(homeDir, ".stepwise", "logs")
		}
	}
	if err := os.MkdirAll(logDir, 0750); err != nil {
		initErr = fmt.Errorf("failed to create log directory: %w", err)
		return "", initErr
	}
	return logDir, nil
}

// NewLogger creates a logger for component writing to the shared run file.
//
// If the directory or file cannot be opened it returns a logger writing to
// stderr together with the error, so callers can warn and carry on.
func NewLogger(component string) (*Logger, error) {
	dir, err := initLogDirectory()
	if err != nil {
		return newFallbackLogger(component, err), err
	}

	id := getRunID()
	logPath := filepath.Join(dir, fmt.Sprintf("%s-stepwise.log", id))

	// Components append to the same file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	return &Logger{
		runID:     id,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
		min:       LevelDebug,
	}, nil
}

func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, "", 0)
	l := &Logger{
		runID:     getRunID(),
		component: component,
		logger:    logger,
		min:       LevelDebug,
	}
	l.Warnf("file logging unavailable, using stderr: %v", err)
	return l
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{component: "nop", logger: log.New(io.Discard, "", 0), min: LevelError + 1}
}

// SetLevel drops entries below min.
func (l *Logger) SetLevel(min Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.min = min
}

func (l *Logger) formatLogEntry(level Level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

func (l *Logger) write(level Level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.min {
		return
	}
	l.logger.Println(l.formatLogEntry(level, fmt.Sprintf(format, v...)))
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...any) { l.write(LevelDebug, format, v...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...any) { l.write(LevelInfo, format, v...) }

// Warnf logs at warning level.
func (l *Logger) Warnf(format string, v ...any) { l.write(LevelWarn, format, v...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...any) { l.write(LevelError, format, v...) }

// Stream returns a sink that records run events: pushes and appends at
// debug level, failures at error level.
func (l *Logger) Stream() config.EventSink {
	return func(e types.RunEvent) {
		indent := strings.Repeat("  ", max(e.Indent, 0))
		switch e.Type {
		case types.EventTypeFailure:
			l.Errorf("%sfailure: %s", indent, e.Message)
		case types.EventTypePush:
			l.Debugf("%s> %s", indent, e.Message)
		case types.EventTypePop:
			l.Debugf("%s< %s", indent, e.Message)
		default:
			l.Debugf("%s%s %s", indent, e.Kind, e.Message)
		}
	}
}

// Writer returns the destination of the logger.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return l.logger.Writer()
}

// RunID returns the id shared by every logger of this process.
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the log file path, or "" when writing to stderr.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// RunID returns the id of this process's run.
func RunID() string {
	return getRunID()
}

// LogDirectory returns the directory where logs are stored.
func LogDirectory() (string, error) {
	return initLogDirectory()
}
