package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrBusy indicates another upload holds the user's lock and is not yet stale.
	ErrBusy = errors.New("upload already in progress")
	// ErrLockStore indicates the lock state could not be read or written.
	ErrLockStore = errors.New("lock store failure")
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store serializes uploads per user through the users.upload_started_at column.
// Acquire is a single conditional UPDATE, so two concurrent acquirers cannot
// both win a stale lock.
type Store struct {
	db         db
	staleAfter time.Duration
	nowFunc    func() time.Time
}

// NewStore builds a Store over a pgx pool or transaction. A lock older than
// staleAfter is treated as abandoned and may be taken over.
func NewStore(db db, staleAfter time.Duration) *Store {
	return &Store{
		db:         db,
		staleAfter: staleAfter,
		nowFunc:    time.Now,
	}
}

// Acquire takes the upload lock for the user. Returns ErrBusy when a fresh
// lock is held by another upload, or a wrapped ErrLockStore on store failure.
func (s *Store) Acquire(ctx context.Context, userID uuid.UUID) error {
	now := s.nowFunc().UTC()
	cutoff := now.Add(-s.staleAfter)

	query := `
UPDATE users
SET upload_started_at = $2
WHERE id = $1
  AND (upload_started_at IS NULL OR upload_started_at < $3);`

	tag, err := s.db.Exec(ctx, query, userID, now, cutoff)
	if err != nil {
		return fmt.Errorf("%w: acquire: %v", ErrLockStore, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBusy
	}
	return nil
}

// Release clears the upload lock. Idempotent; releasing an unheld lock is a
// no-op.
func (s *Store) Release(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET upload_started_at = NULL WHERE id = $1;`

	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("%w: release: %v", ErrLockStore, err)
	}
	return nil
}
