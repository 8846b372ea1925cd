package session

import (
	"context"
	"sync"
)

// MemoryStore keeps records for the process lifetime only.
type MemoryStore struct {
	records sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (st *MemoryStore) Load(_ context.Context, account string) (Record, error) {
	val, ok := st.records.Load(account)
	if !ok {
		return Record{}, ErrNoRecord
	}
	rec := copyRecord(val.(Record))
	if err := rec.validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (st *MemoryStore) Save(_ context.Context, account string, rec Record) error {
	st.records.Store(account, copyRecord(rec))
	return nil
}

func (st *MemoryStore) Delete(_ context.Context, account string) error {
	st.records.Delete(account)
	return nil
}

func (st *MemoryStore) Close() error {
	return nil
}

func copyRecord(rec Record) Record {
	cookies := make(map[string]string, len(rec.Cookies))
	for k, v := range rec.Cookies {
		cookies[k] = v
	}
	return Record{Cookies: cookies}
}
