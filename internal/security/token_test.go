package security

import (
	"net/http/httptest"
	"testing"
)

func TestTokenVerifier(t *testing.T) {
	if NewTokenVerifier("") != nil {
		t.Fatal("empty token should disable verification")
	}

	v := NewTokenVerifier("s3cret")
	if !v.Verify("s3cret") {
		t.Error("correct token rejected")
	}
	if v.Verify("wrong") || v.Verify("") {
		t.Error("bad token accepted")
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
	}
	for header, want := range tests {
		r := httptest.NewRequest("POST", "/mcp", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := BearerToken(r); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
