// Package debounce coalesces bursts of calls per key into a single deferred call.
package debounce

import (
	"sort"
	"sync"
	"time"
)

// Debouncer runs the most recent function registered for a key once the key
// has been quiet for the configured delay. A newer Trigger supersedes a
// pending one.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*call
	stopped bool
	seq     uint64
	wg      sync.WaitGroup
}

type call struct {
	timer *time.Timer
	fn    func()
	gen   uint64
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*call),
	}
}

// Trigger schedules fn for key, replacing any pending function for the same key.
// It returns false once the debouncer has been stopped.
func (d *Debouncer) Trigger(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	c, ok := d.pending[key]
	if ok {
		c.timer.Stop()
		c.fn = fn
	} else {
		c = &call{fn: fn}
		d.pending[key] = c
	}

	d.seq++
	c.gen = d.seq
	gen := c.gen
	c.timer = time.AfterFunc(d.delay, func() { d.fire(key, gen) })
	return true
}

func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	c, ok := d.pending[key]
	if !ok || c.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	c.fn()
}

// Cancel drops the pending call for key. It reports whether one was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.pending[key]
	if !ok {
		return false
	}
	c.timer.Stop()
	delete(d.pending, key)
	return true
}

// Flush runs every pending call now, in the caller's goroutine, and waits for
// calls already fired by their timers.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	calls := make([]func(), 0, len(d.pending))
	for key, c := range d.pending {
		c.timer.Stop()
		calls = append(calls, c.fn)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, fn := range calls {
		fn()
	}
	d.wg.Wait()
}

// Drain cancels every pending call without running it and returns the
// affected keys in sorted order. Calls already fired are waited for.
func (d *Debouncer) Drain() []string {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for key, c := range d.pending {
		c.timer.Stop()
		keys = append(keys, key)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	d.wg.Wait()
	sort.Strings(keys)
	return keys
}

// Pending returns the number of keys waiting for their timer.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop flushes pending calls and rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.Flush()
}
