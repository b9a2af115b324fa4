// Package persist defines the key/value persistence contract shared by the
// local backends and the debounced write-back that keeps them current.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys under which the store persists its collections.
const (
	KeyUsers         = "users"
	KeyDivisions     = "divisions"
	KeyUnits         = "units"
	KeyProjects      = "projects"
	KeyBudgetEntries = "budget_entries"
	KeyBudgetCodes   = "budget_codes"
	KeyNotifications = "notifications"
	KeySettings      = "settings"
)

// Keys lists every persisted key in load order.
var Keys = []string{
	KeySettings,
	KeyUsers,
	KeyDivisions,
	KeyUnits,
	KeyBudgetCodes,
	KeyProjects,
	KeyBudgetEntries,
	KeyNotifications,
}

// Adapter is a key/value store holding one JSON document per key.
type Adapter interface {
	// Load returns the stored document and whether the key exists.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// LoadJSON decodes the document stored under key, or returns def when absent.
func LoadJSON[T any](ctx context.Context, a Adapter, key string, def T) (T, error) {
	data, ok, err := a.Load(ctx, key)
	if err != nil {
		return def, Wrap("load", key, err)
	}
	if !ok || len(data) == 0 {
		return def, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return def, NewError("load", key, CategorySchema, fmt.Errorf("decode %s: %w", key, err))
	}
	return v, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, a Adapter, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return NewError("save", key, CategorySchema, fmt.Errorf("encode %s: %w", key, err))
	}
	if err := a.Save(ctx, key, data); err != nil {
		return Wrap("save", key, err)
	}
	return nil
}
