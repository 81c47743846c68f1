package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeSink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
	block   chan struct{}
}

func (f *fakeSink) Insert(ctx context.Context, entry Entry) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeSink) stored() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

func TestEmitDeliversToSink(t *testing.T) {
	sink := &fakeSink{}
	emitter := NewEmitter(sink, 8, time.Second, zerolog.Nop())

	userID := uuid.New()
	emitter.Emit(&userID, "UPLOAD_MEDIA", "User uploaded a new media object", "MediaUploadService")
	emitter.Close()

	entries := sink.stored()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry delivered, got %d", len(entries))
	}
	if entries[0].Action != "UPLOAD_MEDIA" {
		t.Fatalf("unexpected action: %s", entries[0].Action)
	}
	if entries[0].UserID == nil || *entries[0].UserID != userID {
		t.Fatalf("unexpected user id: %v", entries[0].UserID)
	}
}

func TestEmitNeverBlocksWhenQueueFull(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	emitter := NewEmitter(sink, 1, time.Second, zerolog.Nop())

	// First entry occupies the worker, second fills the queue, the rest must
	// be dropped without blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			emitter.Emit(nil, "LOGIN", "Invalid credentials", "UserAccountService")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full queue")
	}

	close(sink.block)
	emitter.Close()
}

func TestSinkFailureDoesNotPropagate(t *testing.T) {
	sink := &fakeSink{err: errors.New("insert failed")}
	emitter := NewEmitter(sink, 8, time.Second, zerolog.Nop())

	emitter.Emit(nil, "REGISTER", "User registered successfully", "UserAccountService")
	emitter.Close() // must not panic or hang
}

func TestEmitAfterCloseIsDropped(t *testing.T) {
	sink := &fakeSink{}
	emitter := NewEmitter(sink, 8, time.Second, zerolog.Nop())
	emitter.Close()

	emitter.Emit(nil, "LOGIN", "after shutdown", "UserAccountService")

	if len(sink.stored()) != 0 {
		t.Fatalf("expected no entries after close, got %d", len(sink.stored()))
	}
}
