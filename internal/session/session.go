// Package session owns the authenticated platform client: loading the
// persisted cookie record, falling back to a credential login, persisting
// the result and caching the session for the process lifetime.
package session

import (
	"errors"
	"fmt"

	"twikitmcp/internal/platform"
)

var (
	// ErrNoRecord is returned by a Store that holds no record for an account.
	ErrNoRecord = errors.New("no persisted session record")
	// ErrInvalidRecord marks a record that exists but cannot be used.
	ErrInvalidRecord = errors.New("invalid persisted session record")
	// ErrAuthentication matches every login failure returned by Manager.
	ErrAuthentication = errors.New("authentication failed")
	// ErrLoginBlocked is returned while the login guard refuses attempts.
	ErrLoginBlocked = errors.New("login temporarily blocked after repeated failures")
)

// Session is an authenticated client bound to one account.
type Session struct {
	Account string
	Locale  string
	Client  platform.Client
	// Restored is true when the session came from a persisted record rather
	// than a fresh login.
	Restored bool
}

// Record is the persisted form of a session: the client's cookies.
type Record struct {
	Cookies map[string]string
}

func (r Record) validate() error {
	if len(r.Cookies) == 0 {
		return fmt.Errorf("%w: no cookies", ErrInvalidRecord)
	}
	return nil
}

// AuthError wraps a login failure. It matches both ErrAuthentication and the
// underlying cause under errors.Is.
type AuthError struct {
	Account string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Account, e.Err)
}

func (e *AuthError) Unwrap() []error {
	return []error{ErrAuthentication, e.Err}
}
