package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"budgetrack/internal/core"
	"budgetrack/internal/log"
	"budgetrack/internal/persist"
)

const settingsCacheKey = persist.KeySettings + ":row"

// SettingsTable stores the settings singleton as one JSONB row.
type SettingsTable struct {
	c *Client
}

// Get returns the stored settings, or nil when none were saved yet.
func (t *SettingsTable) Get(ctx context.Context) (*core.AppSettings, error) {
	if cached, ok := t.c.cache.Get(settingsCacheKey); ok {
		if s, ok := cached.(core.AppSettings); ok {
			out := s.Clone()
			return &out, nil
		}
	}

	var raw []byte
	err := t.c.db.QueryRowContext(ctx, `SELECT data FROM app_settings WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(log.OpRead, persist.KeySettings, err)
	}

	s := core.DefaultSettings()
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, persist.NewError(log.OpRead, persist.KeySettings, persist.CategorySchema, err)
	}
	t.c.cache.Set(settingsCacheKey, s.Clone())
	return &s, nil
}

func (t *SettingsTable) Save(ctx context.Context, s core.AppSettings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return persist.NewError(log.OpSave, persist.KeySettings, persist.CategorySchema, fmt.Errorf("encode settings: %w", err))
	}

	_, err = t.c.db.ExecContext(ctx, `
		INSERT INTO app_settings (id, data, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		string(raw))
	if err != nil {
		return classify(log.OpSave, persist.KeySettings, err)
	}
	t.c.cache.Delete(settingsCacheKey)
	return nil
}
