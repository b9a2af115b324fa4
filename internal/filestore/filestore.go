// Package filestore keeps one JSON document per key in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"budgetrack/internal/log"
	"budgetrack/internal/persist"
)

var validKey = regexp.MustCompile(`^[a-z0-9_]+$`)

type Store struct {
	dir    string
	logger *log.Logger
}

func New(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, persist.Wrap("open", dir, fmt.Errorf("create data directory: %w", err))
	}
	return &Store{dir: dir, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (s *Store) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", persist.NewError("path", key, persist.CategorySchema, fmt.Errorf("invalid key %q", key))
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, persist.Wrap("load", key, err)
	}
	return data, true, nil
}

// Save writes to a temporary file and renames it over the target so a crash
// never leaves a truncated document.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return persist.Wrap("save", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return persist.Wrap("save", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return persist.Wrap("save", key, err)
	}
	if err := tmp.Close(); err != nil {
		return persist.Wrap("save", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return persist.Wrap("save", key, err)
	}

	s.logger.DebugContext(ctx, "Collection written", log.FieldKey, key, "path", p)
	return nil
}

func (s *Store) Close() error { return nil }
