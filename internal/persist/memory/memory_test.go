package memory

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreLoadSave(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, "users"); ok || err != nil {
		t.Fatalf("Load on empty store: ok=%v err=%v", ok, err)
	}

	if err := s.Save(ctx, "users", []byte(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, ok, err := s.Load(ctx, "users")
	if err != nil || !ok || string(data) != "[]" {
		t.Fatalf("unexpected load: data=%q ok=%v err=%v", data, ok, err)
	}
	if s.Saves("users") != 1 {
		t.Fatalf("Saves = %d, want 1", s.Saves("users"))
	}
}

func TestMemoryStoreFailSaves(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailSaves("projects", boom)

	if err := s.Save(context.Background(), "projects", []byte(`[]`)); !errors.Is(err, boom) {
		t.Fatalf("Save error = %v, want boom", err)
	}

	s.FailSaves("projects", nil)
	if err := s.Save(context.Background(), "projects", []byte(`[]`)); err != nil {
		t.Fatalf("Save after clearing failure: %v", err)
	}
}
