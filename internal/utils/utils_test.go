package utils

import (
	"testing"
	"time"
)

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://x.com/alice/status/42?foo=bar", "42", false},
		{"https://x.com/alice/status/42", "42", false},
		{"https://twitter.com/bob/status/1790000000000000000/photo/1", "1790000000000000000", false},
		{"https://x.com/alice/status/7#frag", "7", false},
		{"https://x.com/alice", "", true},
		{"https://x.com/alice/status/?x=1", "", true},
	}

	for _, tt := range tests {
		got, err := ExtractPostID(tt.url)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ExtractPostID(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ExtractPostID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestStripHandle(t *testing.T) {
	for in, want := range map[string]string{"@alice": "alice", "bob": "bob", " @@carol ": "carol"} {
		if got := StripHandle(in); got != want {
			t.Errorf("StripHandle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		30 * time.Second:            "30 seconds",
		200 * time.Millisecond:      "1 second",
		time.Minute:                 "1 minute",
		14 * time.Minute:            "14 minutes",
		time.Hour:                   "1 hour",
		2*time.Hour + 5*time.Minute: "2 hours 5 minutes",
		time.Hour + 30*time.Minute:  "1 hour 30 minutes",
	}
	for d, want := range tests {
		if got := FormatDuration(d); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := NewLimitedBuffer(5)
	n, err := b.Write([]byte("hello world"))
	if err != nil || n != 11 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	b.Write([]byte("more"))
	if got := b.String(); got != "hello" {
		t.Errorf("String() = %q, want %q", got, "hello")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TWIKIT_TEST_BOOL", "yes")
	t.Setenv("TWIKIT_TEST_INT", "12")
	t.Setenv("TWIKIT_TEST_BAD_INT", "x")

	if !GetEnvBool("TWIKIT_TEST_BOOL", false) {
		t.Error("GetEnvBool should parse yes")
	}
	if GetEnvBool("TWIKIT_TEST_MISSING", false) {
		t.Error("GetEnvBool should fall back")
	}
	if got := GetEnvInt("TWIKIT_TEST_INT", 1); got != 12 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("TWIKIT_TEST_BAD_INT", 3); got != 3 {
		t.Errorf("GetEnvInt fallback = %d", got)
	}
	if got := GetEnv("TWIKIT_TEST_MISSING", "d"); got != "d" {
		t.Errorf("GetEnv fallback = %q", got)
	}
}
