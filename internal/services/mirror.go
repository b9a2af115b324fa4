// Package services holds the background processes that sit between the
// store and the remote database.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"budgetrack/internal/amqp"
	"budgetrack/internal/log"
	"budgetrack/internal/metrics"
	"budgetrack/internal/retry"
	"budgetrack/internal/store"
)

// ErrQueueFull is recorded for changes dropped because the queue was full.
var ErrQueueFull = errors.New("mirror queue full")

// ChangeSink accepts change messages. The AMQP client publishes them; the
// remote sync worker applies them directly.
type ChangeSink interface {
	Send(ctx context.Context, msg *amqp.ChangeMessage) error
}

// MirrorConfig holds configuration for the mirror
type MirrorConfig struct {
	// QueueSize bounds the number of changes waiting to be sent (default: 1024).
	// Changes arriving while the queue is full are dropped and counted.
	QueueSize int

	// SendTimeout bounds a single Send call including retries (default: 30s).
	SendTimeout time.Duration

	// Retry is applied around every Send.
	Retry retry.Config
}

func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		QueueSize:   1024,
		SendTimeout: 30 * time.Second,
		Retry:       retry.DefaultConfig(),
	}
}

// Mirror subscribes to store events and forwards them, in order, to a sink.
// Failures are logged and counted; they never reach the store.
type Mirror struct {
	sink   ChangeSink
	config MirrorConfig
	logger *log.Logger

	queue   chan *amqp.ChangeMessage
	dropped atomic.Int64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirror(sink ChangeSink, config MirrorConfig, logger *log.Logger) *Mirror {
	defaults := DefaultMirrorConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaults.SendTimeout
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = defaults.Retry
	}
	if config.Retry.Retryable == nil {
		config.Retry.Retryable = amqp.ShouldRequeue
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Mirror{
		sink:   sink,
		config: config,
		logger: logger.WithComponent(log.ComponentMirror),
		queue:  make(chan *amqp.ChangeMessage, config.QueueSize),
	}
}

// Handle is a store.Handler. It never blocks: when the queue is full the
// change is dropped, so the remote stays behind until the next resync.
func (m *Mirror) Handle(ev store.Event) {
	entity := ev.Entity
	if ev.Kind == store.EventDeleted {
		entity = nil
	}

	msg, err := amqp.NewChangeMessage(string(ev.Kind), ev.Collection, ev.ID, entity)
	if err != nil {
		m.logger.Error("Failed to encode change",
			log.FieldCollection, ev.Collection,
			log.FieldEntityID, ev.ID,
			log.FieldError, err,
		)
		metrics.ObserveMirror(ev.Collection, err)
		return
	}
	msg.Timestamp = ev.At

	select {
	case m.queue <- msg:
	default:
		n := m.dropped.Add(1)
		metrics.ObserveMirror(ev.Collection, ErrQueueFull)
		m.logger.Warn("Mirror queue full, change dropped",
			log.FieldCollection, ev.Collection,
			log.FieldEntityID, ev.ID,
			"kind", ev.Kind,
			"dropped_total", n,
		)
	}
}

// Start begins forwarding queued changes. Returns an error if already running.
func (m *Mirror) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("mirror is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	go m.runLoop(ctx)

	m.logger.InfoContext(ctx, "Mirror started", "queue_size", m.config.QueueSize)
	return nil
}

// Stop sends what is already queued and waits for the loop to finish, or
// gives up when ctx is done.
func (m *Mirror) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		m.logger.InfoContext(ctx, "Mirror stopped gracefully")
		return nil
	case <-ctx.Done():
		m.logger.WarnContext(ctx, "Mirror stop timed out", "pending", len(m.queue))
		return ctx.Err()
	}
}

// Pending returns the number of queued changes.
func (m *Mirror) Pending() int {
	return len(m.queue)
}

// Dropped returns how many changes were discarded because the queue was full.
func (m *Mirror) Dropped() int64 {
	return m.dropped.Load()
}

func (m *Mirror) runLoop(ctx context.Context) {
	defer close(m.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			m.drain(ctx)
			return
		case msg := <-m.queue:
			m.send(ctx, msg)
		}
	}
}

func (m *Mirror) drain(ctx context.Context) {
	for {
		select {
		case msg := <-m.queue:
			m.send(ctx, msg)
		default:
			return
		}
	}
}

func (m *Mirror) send(ctx context.Context, msg *amqp.ChangeMessage) {
	sendCtx, cancel := context.WithTimeout(ctx, m.config.SendTimeout)
	defer cancel()

	op := fmt.Sprintf("mirror %s %s", msg.Kind, msg.Collection)
	err := retry.Do(sendCtx, m.config.Retry, m.logger, op, func(ctx context.Context) error {
		return m.sink.Send(ctx, msg)
	})
	metrics.ObserveMirror(msg.Collection, err)

	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to mirror change",
			log.FieldCollection, msg.Collection,
			log.FieldEntityID, msg.ID,
			"kind", msg.Kind,
			log.FieldError, err,
		)
		return
	}
	m.logger.DebugContext(ctx, "Change mirrored",
		log.FieldCollection, msg.Collection,
		log.FieldEntityID, msg.ID,
		"kind", msg.Kind,
	)
}
