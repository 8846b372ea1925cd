package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"twikitmcp/internal/constants"
)

// CallEntry is one tool invocation.
type CallEntry struct {
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"request_id"`
	Tool       string        `json:"tool"`
	Outcome    string        `json:"outcome"`
	Duration   time.Duration `json:"duration_ns"`
	ResultSize int           `json:"result_size"`
	Error      string        `json:"error,omitempty"`
}

// Outcomes recorded in CallEntry.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
	OutcomeNotFound    = "not_found"
)

// Logger appends CallEntry lines to one file per process.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	enc       *json.Encoder
	logDir    string
	sessionID string
}

// NewLogger opens <log dir>/<sessionID>.log; an empty sessionID gets a
// random one.
func NewLogger(sessionID string) (*Logger, error) {
	logDir, err := getLogDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get log directory: %w", err)
	}
	return NewLoggerAt(logDir, sessionID)
}

func NewLoggerAt(logDir, sessionID string) (*Logger, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("%s.log", sessionID))

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		file:      file,
		enc:       json.NewEncoder(file),
		logDir:    logDir,
		sessionID: sessionID,
	}, nil
}

func getLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	var logDir string
	switch runtime.GOOS {
	case "windows":
		logDir = filepath.Join(homeDir, "AppData", "Local", constants.AppName, "logs")
	case "darwin":
		logDir = filepath.Join(homeDir, "Library", "Logs", constants.AppName)
	default: // linux and others
		logDir = filepath.Join(homeDir, ".local", "share", constants.AppName, "logs")
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			logDir = filepath.Join(xdgData, constants.AppName, "logs")
		}
	}

	return logDir, nil
}

// NewRequestID returns an id for correlating a call across the call log and
// the audit log.
func NewRequestID() string {
	return uuid.NewString()
}

// Log is a no-op on a nil Logger.
func (l *Logger) Log(entry CallEntry) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	l.enc.Encode(entry)
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) GetLogPath() string {
	if l == nil || l.file == nil {
		return ""
	}
	return l.file.Name()
}

func (l *Logger) GetSessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}
