package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"visionchat/pkg/domain"
)

// FileStore keeps the session as a single JSON file on disk.
type FileStore struct {
	path string
}

// NewFileStore validates the target path and ensures its directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the record. A missing file is a fresh empty session.
func (f *FileStore) Load(_ context.Context) (domain.Session, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return domain.NewSession(), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("read session: %w", err)
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if s.Messages == nil {
		s.Messages = []domain.Message{}
	}
	return s, nil
}

// Save writes the whole record to a temp file and renames it into place.
func (f *FileStore) Save(_ context.Context, s domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Reset overwrites the record with an empty session.
func (f *FileStore) Reset(ctx context.Context) error {
	return f.Save(ctx, domain.NewSession())
}
