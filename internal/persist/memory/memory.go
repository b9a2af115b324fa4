// Package memory is an in-process persist.Adapter used by tests and by hosts
// that run without durable storage.
package memory

import (
	"context"
	"sort"
	"sync"
)

type Store struct {
	mu     sync.Mutex
	docs   map[string][]byte
	saves  map[string]int
	failOn map[string]error
	closed bool
}

func New() *Store {
	return &Store{
		docs:   make(map[string][]byte),
		saves:  make(map[string]int),
		failOn: make(map[string]error),
	}
}

// Seed stores data under key without counting it as a save.
func (s *Store) Seed(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), data...)
}

// FailSaves makes every Save of key return err until cleared with a nil err.
func (s *Store) FailSaves(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failOn, key)
		return
	}
	s.failOn[key] = err
}

func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[key]; err != nil {
		return err
	}
	s.docs[key] = append([]byte(nil), data...)
	s.saves[key]++
	return nil
}

// Saves returns how many successful saves key has seen.
func (s *Store) Saves(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[key]
}

// Keys lists stored keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
