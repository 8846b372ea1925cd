package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoggerAppendsEntries(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLoggerAt(dir, "")
	if err != nil {
		t.Fatalf("NewLoggerAt: %v", err)
	}
	if l.GetSessionID() == "" {
		t.Fatal("expected generated session id")
	}
	if filepath.Dir(l.GetLogPath()) != dir {
		t.Errorf("log path %q not in %q", l.GetLogPath(), dir)
	}

	l.Log(CallEntry{RequestID: "r1", Tool: "search_twitter", Outcome: OutcomeOK, Duration: time.Millisecond, ResultSize: 10})
	l.Log(CallEntry{RequestID: "r2", Tool: "post_tweet", Outcome: OutcomeError, Error: "boom"})
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(l.GetLogPath())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var entries []CallEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e CallEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad line: %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Tool != "search_twitter" || entries[0].Timestamp.IsZero() {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Error != "boom" || entries[1].Outcome != OutcomeError {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Log(CallEntry{Tool: "x"})
	if l.Close() != nil || l.GetLogPath() != "" || l.GetSessionID() != "" {
		t.Fatal("nil logger should be inert")
	}
}

func TestNewRequestIDUnique(t *testing.T) {
	if NewRequestID() == NewRequestID() {
		t.Fatal("request ids collide")
	}
}
