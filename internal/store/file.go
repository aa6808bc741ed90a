package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wattsup/internal/diagram"
)

// FileStore keeps the latest snapshot of each user as a JSON file.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// NewFileStore creates a file store. If baseDir is empty it defaults to
// ~/.config/wattsup/canvases.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "wattsup", "canvases")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create canvas dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, now: time.Now}, nil
}

func (s *FileStore) canvasPath(userID string) string {
	return filepath.Join(s.baseDir, userID+".json")
}

func (s *FileStore) Save(ctx context.Context, snap *diagram.Snapshot) error {
	if err := stamp(snap, s.now); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal canvas: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write through a temp file so readers never see a partial document.
	path := s.canvasPath(snap.UserID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write canvas file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace canvas file: %w", err)
	}
	return nil
}

func (s *FileStore) Latest(ctx context.Context, userID string) (*diagram.Snapshot, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.canvasPath(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read canvas file: %w", err)
	}
	var snap diagram.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse canvas: %w", err)
	}
	return &snap, nil
}

func (s *FileStore) Close(context.Context) error { return nil }

// Path returns the directory holding the canvas files.
func (s *FileStore) Path() string { return s.baseDir }

var _ Store = (*FileStore)(nil)
