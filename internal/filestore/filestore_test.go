package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"budgetrack/internal/persist"
)

func TestStore_LoadSave(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "data"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, persist.KeySettings); ok || err != nil {
		t.Fatalf("Load missing: ok=%v err=%v", ok, err)
	}
	if err := s.Save(ctx, persist.KeySettings, []byte(`{"currency":"EUR"}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, ok, err := s.Load(ctx, persist.KeySettings)
	if err != nil || !ok || string(data) != `{"currency":"EUR"}` {
		t.Fatalf("Load: data=%s ok=%v err=%v", data, ok, err)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "data"))
	if len(entries) != 1 || entries[0].Name() != "settings.json" {
		t.Errorf("directory contents = %v, want only settings.json", entries)
	}
}

func TestStore_RejectsBadKeys(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{"../escape", "Users", ""} {
		if err := s.Save(context.Background(), key, []byte(`[]`)); persist.CategoryOf(err) != persist.CategorySchema {
			t.Errorf("Save(%q) error = %v, want schema error", key, err)
		}
	}
}
