package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrQuotaQuery indicates usage could not be computed from the metadata store.
	ErrQuotaQuery = errors.New("quota query failure")
	// ErrStorageLimitExceeded rejects an upload that would push total live
	// storage past the configured limit.
	ErrStorageLimitExceeded = errors.New("storage limit exceeded")
	// ErrBandwidthLimitExceeded rejects an upload that would push same-day
	// upload volume past the configured limit.
	ErrBandwidthLimitExceeded = errors.New("daily bandwidth limit exceeded")
)

// Snapshot captures a user's consumption at admission time. It is recomputed
// from live records on every check; nothing is cached.
type Snapshot struct {
	TotalStorageBytes   int64
	TodayBandwidthBytes int64
}

// usageIndex is the slice of the media repository the ledger reads.
type usageIndex interface {
	SumLiveSizes(ctx context.Context, userID uuid.UUID) (int64, error)
	SumSizesCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error)
}

// Ledger computes current storage and bandwidth usage for a user.
type Ledger struct {
	index   usageIndex
	nowFunc func() time.Time
}

// NewLedger builds a Ledger over the media usage index.
func NewLedger(index usageIndex) *Ledger {
	return &Ledger{index: index, nowFunc: time.Now}
}

// CurrentUsage returns the user's live storage total and the bytes uploaded
// within the current UTC calendar day. Storage counts live records only;
// bandwidth counts every record created today, tombstoned or not.
func (l *Ledger) CurrentUsage(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	storage, err := l.index.SumLiveSizes(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: storage: %v", ErrQuotaQuery, err)
	}

	dayStart, dayEnd := utcDayBounds(l.nowFunc)
	bandwidth, err := l.index.SumSizesCreatedBetween(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: bandwidth: %v", ErrQuotaQuery, err)
	}

	return Snapshot{
		TotalStorageBytes:   storage,
		TodayBandwidthBytes: bandwidth,
	}, nil
}

func utcDayBounds(nowFunc func() time.Time) (time.Time, time.Time) {
	now := nowFunc().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// Policy holds the two independent admission limits.
type Policy struct {
	MaxStorageBytes        int64
	MaxDailyBandwidthBytes int64
}

// Admit decides whether an upload of incomingBytes may proceed given current
// usage. Storage is checked first, then bandwidth; only the first violated
// limit is reported. Projected totals equal to a limit are admitted.
func (p Policy) Admit(snapshot Snapshot, incomingBytes int64) error {
	if snapshot.TotalStorageBytes+incomingBytes > p.MaxStorageBytes {
		return ErrStorageLimitExceeded
	}
	if snapshot.TodayBandwidthBytes+incomingBytes > p.MaxDailyBandwidthBytes {
		return ErrBandwidthLimitExceeded
	}
	return nil
}
