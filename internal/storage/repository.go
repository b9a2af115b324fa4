// Package storage is the SQLite key/value backend. Each persisted collection
// is one row of the collections table.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgetrack/internal/log"
	"budgetrack/internal/persist"

	_ "modernc.org/sqlite"
)

const (
	loadQuery = `SELECT value FROM collections WHERE key = ?`
	saveQuery = `INSERT INTO collections (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	keysQuery = `SELECT key, updated_at FROM collections ORDER BY key`
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// KeyInfo describes one stored collection.
type KeyInfo struct {
	Key       string
	UpdatedAt time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under the parallel flush.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements persist.Adapter
func (r *SQLiteRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, loadQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("load", key, err)
	}
	return value, true, nil
}

// Save implements persist.Adapter
func (r *SQLiteRepository) Save(ctx context.Context, key string, data []byte) error {
	updatedAt := r.now().UTC().Format(time.RFC3339Nano)
	if _, err := r.db.ExecContext(ctx, saveQuery, key, data, updatedAt); err != nil {
		return classify("save", key, err)
	}

	r.logger.DebugContext(ctx, "Collection saved to SQLite",
		log.FieldKey, key,
		"bytes", len(data))
	return nil
}

// Keys lists the stored collections with their last write time.
func (r *SQLiteRepository) Keys(ctx context.Context) ([]KeyInfo, error) {
	rows, err := r.db.QueryContext(ctx, keysQuery)
	if err != nil {
		return nil, classify("list", "", err)
	}
	defer rows.Close()

	var out []KeyInfo
	for rows.Next() {
		var key, updatedAt string
		if err := rows.Scan(&key, &updatedAt); err != nil {
			return nil, classify("list", "", err)
		}
		ts, _ := time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, KeyInfo{Key: key, UpdatedAt: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list", "", err)
	}
	return out, nil
}

func classify(op, key string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return persist.NewError(op, key, persist.CategorySchema, err)
	case strings.Contains(msg, "readonly"), strings.Contains(msg, "permission denied"):
		return persist.NewError(op, key, persist.CategoryAuth, err)
	}
	return persist.Wrap(op, key, err)
}
