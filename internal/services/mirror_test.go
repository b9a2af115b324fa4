package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"budgetrack/internal/amqp"
	"budgetrack/internal/core"
	"budgetrack/internal/persist"
	"budgetrack/internal/retry"
	"budgetrack/internal/store"
)

type recordingSink struct {
	mu       sync.Mutex
	msgs     []*amqp.ChangeMessage
	failures []error // returned, in order, before succeeding
	calls    int
}

func (s *recordingSink) Send(_ context.Context, msg *amqp.ChangeMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSink) sent() []*amqp.ChangeMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*amqp.ChangeMessage, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func fastConfig() MirrorConfig {
	return MirrorConfig{
		QueueSize:   16,
		SendTimeout: time.Second,
		Retry: retry.Config{
			MaxAttempts:       3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        time.Millisecond,
			BackoffMultiplier: 1,
		},
	}
}

func TestMirror_ForwardsStoreEventsInOrder(t *testing.T) {
	sink := &recordingSink{}
	m := NewMirror(sink, fastConfig(), nil)

	s := store.New(store.Options{})
	defer s.Close()
	unsubscribe := s.Subscribe(m.Handle)
	defer unsubscribe()

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	d, err := s.CreateDivision(core.SystemActor, core.Division{Name: "Engineering"})
	if err != nil {
		t.Fatalf("CreateDivision: %v", err)
	}
	if err := s.DeleteDivision(core.SystemActor, d.ID); err != nil {
		t.Fatalf("DeleteDivision: %v", err)
	}

	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	msgs := sink.sent()
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(msgs))
	}
	if msgs[0].Kind != amqp.KindCreated || msgs[0].Collection != persist.KeyDivisions || msgs[0].ID != d.ID {
		t.Errorf("first message = %+v", msgs[0])
	}
	var got core.Division
	if err := msgs[0].Decode(&got); err != nil || got.Name != "Engineering" {
		t.Errorf("payload = %+v (%v)", got, err)
	}
	if msgs[1].Kind != amqp.KindDeleted || len(msgs[1].Payload) != 0 {
		t.Errorf("second message = %+v, want deletion without payload", msgs[1])
	}
}

func TestMirror_RetriesRetryableFailures(t *testing.T) {
	network := persist.NewError("publish", "projects", persist.CategoryNetwork, errors.New("broker down"))
	sink := &recordingSink{failures: []error{network, network}}
	m := NewMirror(sink, fastConfig(), nil)

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Handle(store.Event{Kind: store.EventUpdated, Collection: persist.KeyProjects, ID: "p1", Entity: core.Project{ID: "p1"}})
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if sink.calls != 3 || len(sink.sent()) != 1 {
		t.Errorf("calls = %d, sent = %d; want 3 calls and 1 delivered", sink.calls, len(sink.sent()))
	}
}

func TestMirror_DropsPermanentFailures(t *testing.T) {
	schema := persist.NewError("update", "projects", persist.CategorySchema, errors.New("no such column"))
	sink := &recordingSink{failures: []error{schema}}
	m := NewMirror(sink, fastConfig(), nil)

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Handle(store.Event{Kind: store.EventUpdated, Collection: persist.KeyProjects, ID: "p1", Entity: core.Project{ID: "p1"}})
	m.Handle(store.Event{Kind: store.EventDeleted, Collection: persist.KeyProjects, ID: "p2"})
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	msgs := sink.sent()
	if sink.calls != 2 || len(msgs) != 1 || msgs[0].ID != "p2" {
		t.Errorf("calls = %d, sent = %+v; the failed change should not be retried", sink.calls, msgs)
	}
}

func TestMirror_Lifecycle(t *testing.T) {
	m := NewMirror(&recordingSink{}, fastConfig(), nil)
	ctx := context.Background()

	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if m.Pending() != 0 {
		t.Errorf("Pending = %d", m.Pending())
	}
}

type failingSink struct {
	err   error
	calls atomic.Int64
}

func (s *failingSink) Send(context.Context, *amqp.ChangeMessage) error {
	s.calls.Add(1)
	return s.err
}

func TestMirror_FullQueueNeverBlocksMutations(t *testing.T) {
	sink := &failingSink{err: persist.NewError("publish", "divisions", persist.CategoryNetwork, errors.New("broker down"))}
	cfg := MirrorConfig{
		QueueSize:   2,
		SendTimeout: 5 * time.Second,
		Retry: retry.Config{
			MaxAttempts:       3,
			InitialBackoff:    200 * time.Millisecond,
			MaxBackoff:        200 * time.Millisecond,
			BackoffMultiplier: 1,
		},
	}
	m := NewMirror(sink, cfg, nil)

	s := store.New(store.Options{})
	defer s.Close()
	defer s.Subscribe(m.Handle)()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	start := time.Now()
	for i := 0; i < 20; i++ {
		if _, err := s.CreateDivision(core.SystemActor, core.Division{Name: fmt.Sprintf("Division %d", i)}); err != nil {
			t.Fatalf("CreateDivision: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("20 mutations took %v with a failing mirror", elapsed)
	}
	if got := m.Dropped(); got == 0 {
		t.Error("Dropped = 0, want overflow to be counted")
	}
	if got := len(s.Divisions()); got != 20 {
		t.Errorf("store holds %d divisions, want 20", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
