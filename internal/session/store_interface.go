package session

import "context"

// Store persists session records keyed by account. Load returns ErrNoRecord
// when nothing is stored and a wrapped ErrInvalidRecord (or a backend error)
// when the stored data cannot be used.
type Store interface {
	Load(ctx context.Context, account string) (Record, error)
	Save(ctx context.Context, account string, rec Record) error
	Delete(ctx context.Context, account string) error
	Close() error
}
