package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"twikitmcp/internal/config"
	"twikitmcp/internal/constants"
	"twikitmcp/internal/platform"
	"twikitmcp/internal/security"
)

type Options struct {
	Store       Store
	Factory     platform.Factory
	Credentials config.Credentials
	Locale      string
	// LockPath is the advisory lock file guarding load-login-save. Empty
	// disables the cross-process lock.
	LockPath string
	// Guard refuses logins after repeated failures. Nil disables it.
	Guard *security.BruteForceProtector
	Audit *security.AuditLogger
}

// Manager hands out the authenticated session. The last good session is
// cached until Invalidate is called; acquisitions are serialized so that
// concurrent tool calls trigger at most one login.
type Manager struct {
	mu       sync.Mutex
	store    Store
	factory  platform.Factory
	creds    config.Credentials
	account  string
	locale   string
	lockPath string
	guard    *security.BruteForceProtector
	audit    *security.AuditLogger

	cached *Session
	// stale skips the persisted record once, after the platform rejected it.
	stale bool
}

func NewManager(opts Options) *Manager {
	locale := opts.Locale
	if locale == "" {
		locale = constants.DefaultLocale
	}
	return &Manager{
		store:    opts.Store,
		factory:  opts.Factory,
		creds:    opts.Credentials,
		account:  opts.Credentials.Account(),
		locale:   locale,
		lockPath: opts.LockPath,
		guard:    opts.Guard,
		audit:    opts.Audit,
	}
}

// Acquire returns the cached session, else restores the persisted record,
// else logs in and persists the new cookies. Login failures return an
// *AuthError and leave the store untouched.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return m.cached, nil
	}

	if m.lockPath != "" {
		unlock, err := lockFile(m.lockPath)
		if err != nil {
			log.Printf("⚠️  Session lock unavailable, continuing without it: %v", err)
		} else {
			defer unlock()
		}
	}

	sess := m.restore(ctx)
	if sess == nil {
		var err error
		if sess, err = m.login(ctx); err != nil {
			return nil, err
		}
		m.stale = false
	}
	log.Printf("🔓 Session ready: %s", sess)
	m.cached = sess
	return sess, nil
}

// Invalidate drops the cached session and marks the persisted record as
// rejected so the next Acquire logs in again.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		log.Printf("🔄 Session for %s invalidated", m.account)
	}
	m.cached = nil
	m.stale = true
}

// Account is the key used for the persisted record.
func (m *Manager) Account() string {
	return m.account
}

func (m *Manager) restore(ctx context.Context) *Session {
	if m.stale {
		return nil
	}

	rec, err := m.store.Load(ctx, m.account)
	if errors.Is(err, ErrNoRecord) {
		log.Printf("🔑 No saved session for %s, logging in", m.account)
		return nil
	}
	if err != nil {
		log.Printf("⚠️  Could not load saved session, logging in again: %v", err)
		return nil
	}

	client := m.factory(m.locale)
	client.SetCookies(rec.Cookies)
	return &Session{Account: m.account, Locale: m.locale, Client: client, Restored: true}
}

func (m *Manager) login(ctx context.Context) (*Session, error) {
	if m.guard != nil && !m.guard.Check(m.account) {
		m.audit.LogLoginBlocked(m.account)
		log.Printf("⛔ Login for %s blocked after repeated failures", m.account)
		return nil, &AuthError{Account: m.account, Err: ErrLoginBlocked}
	}

	client := m.factory(m.locale)
	if err := client.Login(ctx, m.creds); err != nil {
		if m.guard != nil {
			attempts := m.guard.RecordFailure(m.account)
			log.Printf("❌ Login failed for %s (attempt %d): %v", m.account, attempts, err)
		} else {
			log.Printf("❌ Login failed for %s: %v", m.account, err)
		}
		m.audit.LogLoginFailure(m.account, err.Error())
		return nil, &AuthError{Account: m.account, Err: err}
	}

	if m.guard != nil {
		m.guard.RecordSuccess(m.account)
	}
	m.audit.LogLoginSuccess(m.account)
	log.Printf("✅ Logged in as %s", m.account)

	if err := m.store.Save(ctx, m.account, Record{Cookies: client.Cookies()}); err != nil {
		log.Printf("⚠️  Logged in but could not persist session: %v", err)
	}

	return &Session{Account: m.account, Locale: m.locale, Client: client}, nil
}

// String is used in log lines.
func (s *Session) String() string {
	src := "login"
	if s.Restored {
		src = "saved record"
	}
	return fmt.Sprintf("%s (%s, %s)", s.Account, s.Locale, src)
}
