package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"twikitmcp/internal/config"
	"twikitmcp/internal/constants"
	"twikitmcp/internal/platform/platformtest"
	"twikitmcp/internal/security"
	"twikitmcp/internal/session"
	"twikitmcp/internal/tools"
)

func newTestServer(t *testing.T, token string) (*Server, *platformtest.Client) {
	t.Helper()
	fake := platformtest.New()
	manager := session.NewManager(session.Options{
		Store:       session.NewMemoryStore(),
		Factory:     fake.Factory(),
		Credentials: config.Credentials{Username: "alice", Password: "pw"},
	})

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: constants.ServerName, Version: constants.Version}, nil)
	tools.NewService(manager, nil, nil, nil).Register(mcpServer)

	s := &Server{
		Config:         &config.Config{Transport: constants.TransportHTTP},
		MCP:            mcpServer,
		Sessions:       manager,
		ConnLimiter:    security.NewConnectionLimiter(constants.MaxConnectionsPerIP),
		BruteProtector: security.NewBruteForceProtector(constants.MaxAuthAttempts, constants.BlockDuration),
		Tokens:         security.NewTokenVerifier(token),
	}
	t.Cleanup(s.Cleanup)
	return s, fake
}

func TestAuthMiddleware(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	h := s.Handler()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, constants.EndpointMCP, strings.NewReader("{}"))
		req.RemoteAddr = "192.0.2.1:1234"
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}

func TestAuthMiddlewareBlocksAfterRepeatedFailures(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	h := s.Handler()

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, constants.EndpointMCP, strings.NewReader("{}"))
		req.RemoteAddr = "192.0.2.7:1234"
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < constants.MaxAuthAttempts; i++ {
		if code := send("bad"); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i+1, code)
		}
	}
	if code := send("secret"); code != http.StatusTooManyRequests {
		t.Errorf("blocked IP with right token: status = %d, want 429", code)
	}
}

func TestConnLimitMiddleware(t *testing.T) {
	s, _ := newTestServer(t, "")
	s.ConnLimiter = security.NewConnectionLimiter(0)

	req := httptest.NewRequest(http.MethodPost, constants.EndpointMCP, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), constants.MsgConnLimit) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCorsPreflight(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	req := httptest.NewRequest(http.MethodOptions, constants.EndpointMCP, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestCorsRejectsForeignOrigin(t *testing.T) {
	s, fake := newTestServer(t, "")
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"post_tweet","arguments":{"text":"pwned"}}}`

	for _, method := range []string{http.MethodOptions, http.MethodPost} {
		req := httptest.NewRequest(method, constants.EndpointMCP, strings.NewReader(body))
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", method, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("%s: Allow-Origin = %q, want none", method, got)
		}
	}
	if c := fake.Created(); len(c) != 0 {
		t.Errorf("created = %v", c)
	}
}

func TestCorsAllowsConfiguredOrigin(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	s.Config.AllowedOrigins = []string{"https://app.example.com"}

	req := httptest.NewRequest(http.MethodOptions, constants.EndpointMCP, nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

type originTransport struct {
	origin string
	base   http.RoundTripper
}

func (o *originTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Origin", o.origin)
	return o.base.RoundTrip(r)
}

func TestStreamableHTTPForeignOriginCannotPost(t *testing.T) {
	s, fake := newTestServer(t, "")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx := context.Background()
	transport := &mcp.StreamableClientTransport{
		Endpoint:   srv.URL + constants.EndpointMCP,
		HTTPClient: &http.Client{Transport: &originTransport{origin: "https://evil.example", base: http.DefaultTransport}},
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, transport, nil)
	if err == nil {
		defer cs.Close()
		if _, err := cs.CallTool(ctx, &mcp.CallToolParams{
			Name:      "post_tweet",
			Arguments: map[string]any{"text": "pwned"},
		}); err == nil {
			t.Error("CallTool from a foreign origin succeeded")
		}
	}
	if c := fake.Created(); len(c) != 0 {
		t.Errorf("created = %v", c)
	}
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(r)
}

func TestStreamableHTTPToolCall(t *testing.T) {
	s, fake := newTestServer(t, "secret")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx := context.Background()
	transport := &mcp.StreamableClientTransport{
		Endpoint:   srv.URL + constants.EndpointMCP,
		HTTPClient: &http.Client{Transport: &bearerTransport{token: "secret", base: http.DefaultTransport}},
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, transport, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "delete_tweet",
		Arguments: map[string]any{"tweet_id": "77"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok || tc.Text != "Successfully deleted tweet 77" {
		t.Errorf("result = %+v", res.Content)
	}
	if d := fake.Deleted(); len(d) != 1 || d[0] != "77" {
		t.Errorf("deleted = %v", d)
	}
}
