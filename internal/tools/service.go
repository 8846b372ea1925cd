// Package tools implements the MCP tools on top of the session manager and
// the platform client.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"twikitmcp/internal/logger"
	"twikitmcp/internal/platform"
	"twikitmcp/internal/security"
	"twikitmcp/internal/session"
	"twikitmcp/internal/utils"
)

// Sessions hands out the authenticated session. *session.Manager satisfies it.
type Sessions interface {
	Acquire(ctx context.Context) (*session.Session, error)
	Invalidate()
}

// Service holds everything the tool handlers share.
type Service struct {
	sessions Sessions
	limiter  *security.RateLimiter
	audit    *security.AuditLogger
	calls    *logger.Logger
	now      func() time.Time
}

// NewService wires the handlers. audit and calls may be nil.
func NewService(sessions Sessions, limiter *security.RateLimiter, audit *security.AuditLogger, calls *logger.Logger) *Service {
	if limiter == nil {
		limiter = security.NewDefaultRateLimiter()
	}
	return &Service{
		sessions: sessions,
		limiter:  limiter,
		audit:    audit,
		calls:    calls,
		now:      time.Now,
	}
}

// rateLimitedError carries the message returned to the caller verbatim.
type rateLimitedError struct {
	msg  string
	used int
}

func (e *rateLimitedError) Error() string { return e.msg }

// notFoundError is reported as a plain message rather than a failure.
type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// handlerFunc is the internal shape of every tool.
type handlerFunc func(ctx context.Context) (string, error)

// safe runs h and turns any outcome into the text returned to the agent.
// It never panics and never returns an error.
func (s *Service) safe(ctx context.Context, tool, action string, h handlerFunc) (text string) {
	rid := logger.NewRequestID()
	ctx = context.WithValue(ctx, requestIDKey{}, rid)
	start := s.now()

	entry := logger.CallEntry{RequestID: rid, Tool: tool, Outcome: logger.OutcomeOK}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("💥 Panic in %s: %v\n%s", tool, r, debug.Stack())
			text = fmt.Sprintf("Failed to %s: internal error", action)
			entry.Outcome = logger.OutcomeError
			entry.Error = fmt.Sprint(r)
		}
		entry.Duration = s.now().Sub(start)
		entry.ResultSize = len(text)
		s.calls.Log(entry)
	}()

	out, err := h(ctx)
	if err == nil {
		return out
	}

	var rl *rateLimitedError
	var nf *notFoundError
	switch {
	case errors.As(err, &rl):
		entry.Outcome = logger.OutcomeRateLimited
		log.Printf("⏳ %s: %s (%d recorded in window)", tool, rl.msg, rl.used)
		return rl.msg
	case errors.As(err, &nf):
		entry.Outcome = logger.OutcomeNotFound
		return nf.msg
	}

	if errors.Is(err, platform.ErrUnauthorized) {
		s.sessions.Invalidate()
	}
	entry.Outcome = logger.OutcomeError
	entry.Error = err.Error()
	log.Printf("❌ %s failed: %v", tool, err)
	return fmt.Sprintf("Failed to %s: %v", action, err)
}

// checkQuota fails with the category's rate-limit message when its quota is
// spent.
func (s *Service) checkQuota(ctx context.Context, c security.Category, msg string) error {
	if s.limiter.Allow(c) {
		return nil
	}
	s.audit.LogRateLimit(requestID(ctx), string(c))
	if wait := s.limiter.RetryAfter(c); wait > 0 {
		msg = fmt.Sprintf("%s Try again in %s.", msg, utils.FormatDuration(wait))
	}
	return &rateLimitedError{msg: msg, used: s.limiter.Count(c)}
}

func (s *Service) client(ctx context.Context) (platform.Client, error) {
	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Client, nil
}

// clampCount maps non-positive counts to def and caps the rest.
func clampCount(n, def, limit int) int {
	if n <= 0 {
		return def
	}
	if n > limit {
		return limit
	}
	return n
}
