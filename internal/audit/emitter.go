package audit

import (
	"context"
	"sync"
	"time"

	"github.com/abduss/mediavault/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sink persists audit entries; implemented by Repository.
type sink interface {
	Insert(ctx context.Context, entry Entry) error
}

// Emitter dispatches audit entries to the sink from a background worker. Emit
// never blocks the caller and sink failures never propagate; a full queue
// drops the entry with a warning.
type Emitter struct {
	queue        chan Entry
	sink         sink
	logger       zerolog.Logger
	writeTimeout time.Duration
	nowFunc      func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewEmitter starts the background worker.
func NewEmitter(sink sink, queueSize int, writeTimeout time.Duration, logger zerolog.Logger) *Emitter {
	if queueSize <= 0 {
		queueSize = 256
	}

	e := &Emitter{
		queue:        make(chan Entry, queueSize),
		sink:         sink,
		logger:       logger,
		writeTimeout: writeTimeout,
		nowFunc:      time.Now,
	}

	e.wg.Add(1)
	go e.run()

	return e
}

// Emit enqueues an audit entry without waiting for delivery.
func (e *Emitter) Emit(userID *uuid.UUID, action, description, service string) {
	entry := Entry{
		UserID:      userID,
		Action:      action,
		Description: description,
		Service:     service,
		CreatedAt:   e.nowFunc().UTC(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.logger.Warn().Str("action", action).Msg("audit entry after shutdown, dropping")
		return
	}

	select {
	case e.queue <- entry:
	default:
		metrics.AuditDropped.Inc()
		e.logger.Warn().Str("action", action).Msg("audit queue full, dropping entry")
	}
}

// Close stops accepting entries and drains the queue.
func (e *Emitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Emitter) run() {
	defer e.wg.Done()

	for entry := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), e.writeTimeout)
		err := e.sink.Insert(ctx, entry)
		cancel()
		if err != nil {
			e.logger.Error().Err(err).Str("action", entry.Action).Msg("audit write failed")
		}
	}
}
