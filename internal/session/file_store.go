package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"twikitmcp/internal/constants"
	"twikitmcp/internal/crypto"
)

// FileStore keeps one record at a fixed path. The file is a flat JSON object
// of cookie name to value, optionally sealed. The account key is ignored:
// a process serves a single account.
type FileStore struct {
	path   string
	sealer *crypto.Sealer
}

// NewFileStore returns a store at path. A nil sealer stores plain JSON.
func NewFileStore(path string, sealer *crypto.Sealer) *FileStore {
	return &FileStore{path: path, sealer: sealer}
}

func (st *FileStore) Path() string {
	return st.path
}

func (st *FileStore) Load(_ context.Context, _ string) (Record, error) {
	data, err := os.ReadFile(st.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read session file: %w", err)
	}

	if crypto.IsSealed(data) {
		if st.sealer == nil {
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, crypto.ErrSealed)
		}
		data, err = st.sealer.Open(data)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
	}

	var cookies map[string]string
	if err := json.Unmarshal(data, &cookies); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	rec := Record{Cookies: cookies}
	if err := rec.validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Save writes atomically: a temp file in the same directory is renamed over
// the record so readers never observe a partial write.
func (st *FileStore) Save(_ context.Context, _ string, rec Record) error {
	data, err := json.MarshalIndent(rec.Cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if st.sealer != nil {
		if data, err = st.sealer.Seal(data); err != nil {
			return fmt.Errorf("failed to seal session: %w", err)
		}
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, constants.SessionDirMode); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(st.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(constants.SessionFileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	log.Printf("💾 Session saved to %s", st.path)
	return nil
}

func (st *FileStore) Delete(_ context.Context, _ string) error {
	err := os.Remove(st.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (st *FileStore) Close() error {
	return nil
}
