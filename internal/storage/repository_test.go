package storage

import (
	"context"
	"path/filepath"
	"testing"

	"budgetrack/internal/persist"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_LoadSave(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, ok, err := repo.Load(ctx, persist.KeyProjects); ok || err != nil {
		t.Fatalf("Load on empty db: ok=%v err=%v", ok, err)
	}

	if err := repo.Save(ctx, persist.KeyProjects, []byte(`[{"id":"p1"}]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, persist.KeyProjects, []byte(`[{"id":"p2"}]`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	data, ok, err := repo.Load(ctx, persist.KeyProjects)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if string(data) != `[{"id":"p2"}]` {
		t.Errorf("Load = %s, want last saved value", data)
	}

	keys, err := repo.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0].Key != persist.KeyProjects || keys[0].UpdatedAt.IsZero() {
		t.Errorf("Keys = %+v, want one projects row with timestamp", keys)
	}
}

func TestSQLiteRepository_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path, nil)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}

func TestSQLiteRepository_ImplementsAdapter(t *testing.T) {
	var _ persist.Adapter = newTestRepo(t)
}
