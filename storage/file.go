package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/swcgen/graph"
)

const fileExt = ".json"

// FileStore keeps one JSON document per project in a directory.
type FileStore struct {
	dir    string
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Save writes the snapshot through a temporary file and rename.
func (s *FileStore) Save(_ context.Context, snap graph.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, snap.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("save project %s: %w", snap.Name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save project %s: %w", snap.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save project %s: %w", snap.Name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(snap.Name)); err != nil {
		return fmt.Errorf("save project %s: %w", snap.Name, err)
	}

	s.logger.Debug("Saved project", "name", snap.Name, "bytes", len(data))
	return nil
}

// Load reads a snapshot.
func (s *FileStore) Load(_ context.Context, name string) (graph.Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return graph.Snapshot{}, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path(name))
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return graph.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("load project %s: %w", name, err)
	}
	return decode(name, data)
}

// List returns project names found in the directory.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), fileExt)
		if ValidateName(name) == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a project file.
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete project %s: %w", name, err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
