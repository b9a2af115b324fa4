package persist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetrack/internal/debounce"
	"budgetrack/internal/log"
	"budgetrack/internal/metrics"
)

// DefaultDelay is the per-key debounce window.
const DefaultDelay = 300 * time.Millisecond

// Source produces the current JSON document for a key. The writer calls it
// when a write actually happens, so a burst of changes yields one snapshot.
type Source interface {
	Snapshot(key string) ([]byte, error)
}

type WriterConfig struct {
	Delay   time.Duration
	Logger  *log.Logger
	OnError func(*Error)
	// Timeout bounds a single timer-driven write. Zero means 10s.
	Timeout time.Duration
}

// Writer debounces Save calls per key. Failed keys are kept and retried on
// the next write or Flush; in-memory state is never rolled back.
type Writer struct {
	adapter Adapter
	source  Source
	cfg     WriterConfig
	logger  *log.Logger
	deb     *debounce.Debouncer

	mu     sync.Mutex
	failed map[string]struct{}

	// keyLocks serialise writes of one key from snapshot to save, so a
	// later snapshot is never overwritten by an earlier one.
	keyLocks map[string]*sync.Mutex
}

func NewWriter(adapter Adapter, source Source, cfg WriterConfig) *Writer {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	return &Writer{
		adapter: adapter,
		source:  source,
		cfg:     cfg,
		logger:  cfg.Logger.WithComponent(log.ComponentPersist),
		deb:     debounce.New(cfg.Delay),
		failed:  make(map[string]struct{}),

		keyLocks: make(map[string]*sync.Mutex),
	}
}

// Mark schedules a write of key. Repeated marks within the window coalesce.
func (w *Writer) Mark(key string) {
	w.deb.Trigger(key, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Timeout)
		defer cancel()
		_ = w.writeKeys(ctx, w.withFailed(key))
	})
}

// Pending returns how many keys are waiting for their debounce timer.
func (w *Writer) Pending() int {
	return w.deb.Pending()
}

// Failed returns the keys whose last write failed, sorted.
func (w *Writer) Failed() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys := make([]string, 0, len(w.failed))
	for k := range w.failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush writes every pending and previously failed key now.
func (w *Writer) Flush(ctx context.Context) error {
	keys := w.withFailed(w.deb.Drain()...)
	if len(keys) == 0 {
		return nil
	}
	return w.writeKeys(ctx, keys)
}

// Close flushes and stops accepting marks.
func (w *Writer) Close(ctx context.Context) error {
	err := w.Flush(ctx)
	w.deb.Stop()
	return err
}

func (w *Writer) withFailed(keys ...string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	for k := range w.failed {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (w *Writer) writeKeys(ctx context.Context, keys []string) error {
	g, ctx := errgroup.WithContext(ctx)
	errs := make([]error, len(keys))
	for i, key := range keys {
		g.Go(func() error {
			// One failing key must not cancel its siblings.
			errs[i] = w.write(ctx, key)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (w *Writer) lockKey(key string) func() {
	w.mu.Lock()
	l, ok := w.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		w.keyLocks[key] = l
	}
	w.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (w *Writer) write(ctx context.Context, key string) error {
	defer w.lockKey(key)()
	start := time.Now()

	data, err := w.source.Snapshot(key)
	if err != nil {
		return w.fail(ctx, NewError("snapshot", key, CategorySchema, err))
	}
	if err := w.adapter.Save(ctx, key, data); err != nil {
		var pe *Error
		if !errors.As(Wrap("save", key, err), &pe) {
			pe = NewError("save", key, CategoryUnknown, err)
		}
		return w.fail(ctx, pe)
	}

	w.mu.Lock()
	delete(w.failed, key)
	w.mu.Unlock()

	metrics.ObservePersistWrite(key, nil)
	w.logger.DebugContext(ctx, "Collection persisted",
		log.FieldKey, key,
		"bytes", len(data),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (w *Writer) fail(ctx context.Context, pe *Error) error {
	w.mu.Lock()
	w.failed[pe.Key] = struct{}{}
	w.mu.Unlock()

	metrics.ObservePersistWrite(pe.Key, pe)
	metrics.ObservePersistFailure(string(pe.Category))
	w.logger.LogError(ctx, "Persistence write failed", pe, log.OpSave,
		log.NewFields().WithKey(pe.Key).WithErrorType(string(pe.Category)))

	if w.cfg.OnError != nil {
		w.cfg.OnError(pe)
	}
	return pe
}
