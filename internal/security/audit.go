package security

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"twikitmcp/internal/constants"
)

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	IP        string    `json:"ip,omitempty"`
	Account   string    `json:"account,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Details   string    `json:"details"`
	Severity  string    `json:"severity"`
}

type AuditLogger struct {
	mu          sync.RWMutex
	file        *os.File
	enc         *json.Encoder
	logDir      string
	logCount    map[string]int
	windowStart time.Time
}

var (
	instance *AuditLogger
	once     sync.Once
)

func GetAuditLogger() (*AuditLogger, error) {
	var err error
	once.Do(func() {
		instance, err = newAuditLogger()
	})
	return instance, err
}

func newAuditLogger() (*AuditLogger, error) {
	dir, err := getAuditLogDir()
	if err != nil {
		return nil, err
	}
	return NewAuditLoggerAt(dir)
}

// NewAuditLoggerAt opens today's audit file inside dir.
func NewAuditLoggerAt(dir string) (*AuditLogger, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	filename := filepath.Join(dir, fmt.Sprintf("audit-%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		file:        file,
		enc:         json.NewEncoder(file),
		logDir:      dir,
		logCount:    make(map[string]int),
		windowStart: time.Now(),
	}, nil
}

func getAuditLogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", constants.AppName, "audit"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Logs", constants.AppName, "audit"), nil
	default:
		return filepath.Join(home, ".local", "share", constants.AppName, "audit"), nil
	}
}

// Log is a no-op on a nil logger so callers need not check whether auditing
// is enabled.
func (al *AuditLogger) Log(event AuditEvent) {
	if al == nil {
		return
	}
	al.mu.Lock()
	defer al.mu.Unlock()

	now := time.Now()

	if now.Sub(al.windowStart) > time.Minute {
		al.windowStart = now
		al.logCount = make(map[string]int)
	}

	totalLogs := 0
	for _, count := range al.logCount {
		totalLogs += count
	}

	if totalLogs >= constants.MaxAuditLogsPerMinute || !al.hasEnoughDiskSpace() {
		return
	}

	al.logCount[event.EventType]++
	event.Timestamp = now
	al.enc.Encode(event)
}

func (al *AuditLogger) LogAuthFailure(ip, reason string) {
	al.Log(AuditEvent{
		EventType: "auth_failure",
		IP:        ip,
		Details:   reason,
		Severity:  "warning",
	})
}

func (al *AuditLogger) LogBruteForce(ip string, attempts int) {
	al.Log(AuditEvent{
		EventType: "brute_force",
		IP:        ip,
		Details:   fmt.Sprintf("Multiple failed attempts: %d", attempts),
		Severity:  "critical",
	})
}

func (al *AuditLogger) LogConnectionLimit(ip string) {
	al.Log(AuditEvent{
		EventType: "connection_limit",
		IP:        ip,
		Details:   "Connection limit exceeded",
		Severity:  "warning",
	})
}

func (al *AuditLogger) LogForbiddenOrigin(ip, origin string) {
	al.Log(AuditEvent{
		EventType: "forbidden_origin",
		IP:        ip,
		Details:   origin,
		Severity:  "warning",
	})
}

func (al *AuditLogger) LogLoginSuccess(account string) {
	al.Log(AuditEvent{
		EventType: "login_success",
		Account:   account,
		Details:   "Platform login succeeded, session persisted",
		Severity:  "info",
	})
}

func (al *AuditLogger) LogLoginFailure(account, reason string) {
	al.Log(AuditEvent{
		EventType: "login_failure",
		Account:   account,
		Details:   reason,
		Severity:  "warning",
	})
}

func (al *AuditLogger) LogLoginBlocked(account string) {
	al.Log(AuditEvent{
		EventType: "login_blocked",
		Account:   account,
		Details:   "Login refused after repeated failures",
		Severity:  "critical",
	})
}

func (al *AuditLogger) LogRateLimit(requestID string, category string) {
	al.Log(AuditEvent{
		EventType: "rate_limit",
		RequestID: requestID,
		Details:   fmt.Sprintf("Local quota exhausted for %s", category),
		Severity:  "warning",
	})
}

// LogWrite records a state-changing platform call such as a post or DM.
func (al *AuditLogger) LogWrite(requestID, action, target string) {
	al.Log(AuditEvent{
		EventType: action,
		RequestID: requestID,
		Details:   target,
		Severity:  "info",
	})
}

// Path returns the audit file in use.
func (al *AuditLogger) Path() string {
	if al == nil || al.file == nil {
		return ""
	}
	return al.file.Name()
}

func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}
	al.mu.Lock()
	defer al.mu.Unlock()
	if al.file != nil {
		return al.file.Close()
	}
	return nil
}
