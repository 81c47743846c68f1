package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

const mib = 1024 * 1024

type fakeIndex struct {
	liveTotal int64
	dayTotal  int64
	err       error
	from, to  time.Time
}

func (f *fakeIndex) SumLiveSizes(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.liveTotal, nil
}

func (f *fakeIndex) SumSizesCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return 0, f.err
	}
	return f.dayTotal, nil
}

func TestCurrentUsageReturnsBothTotals(t *testing.T) {
	index := &fakeIndex{liveTotal: 30 * mib, dayTotal: 70 * mib}
	ledger := NewLedger(index)

	snapshot, err := ledger.CurrentUsage(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("CurrentUsage returned error: %v", err)
	}
	if snapshot.TotalStorageBytes != 30*mib {
		t.Fatalf("expected storage %d, got %d", 30*mib, snapshot.TotalStorageBytes)
	}
	if snapshot.TodayBandwidthBytes != 70*mib {
		t.Fatalf("expected bandwidth %d, got %d", 70*mib, snapshot.TodayBandwidthBytes)
	}
}

func TestCurrentUsageQueriesCurrentUTCDay(t *testing.T) {
	index := &fakeIndex{}
	ledger := NewLedger(index)
	// Late evening in UTC-5; the UTC day is already the 2nd.
	loc := time.FixedZone("UTC-5", -5*3600)
	ledger.nowFunc = func() time.Time {
		return time.Date(2025, 6, 1, 21, 30, 0, 0, loc) // 02:30 UTC on June 2
	}

	if _, err := ledger.CurrentUsage(context.Background(), uuid.New()); err != nil {
		t.Fatalf("CurrentUsage returned error: %v", err)
	}

	wantFrom := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if !index.from.Equal(wantFrom) {
		t.Fatalf("expected day start %v, got %v", wantFrom, index.from)
	}
	if !index.to.Equal(wantFrom.Add(24 * time.Hour)) {
		t.Fatalf("expected day end %v, got %v", wantFrom.Add(24*time.Hour), index.to)
	}
}

func TestCurrentUsageWrapsStoreFailure(t *testing.T) {
	index := &fakeIndex{err: errors.New("timeout")}
	ledger := NewLedger(index)

	_, err := ledger.CurrentUsage(context.Background(), uuid.New())
	if !errors.Is(err, ErrQuotaQuery) {
		t.Fatalf("expected ErrQuotaQuery, got %v", err)
	}
}

func TestAdmitPolicy(t *testing.T) {
	policy := Policy{
		MaxStorageBytes:        50 * mib,
		MaxDailyBandwidthBytes: 100 * mib,
	}

	tests := []struct {
		name     string
		snapshot Snapshot
		incoming int64
		want     error
	}{
		{
			name:     "well under both limits",
			snapshot: Snapshot{TotalStorageBytes: 10 * mib, TodayBandwidthBytes: 10 * mib},
			incoming: 10 * mib,
			want:     nil,
		},
		{
			name:     "exactly at storage limit is admitted",
			snapshot: Snapshot{TotalStorageBytes: 40 * mib},
			incoming: 10 * mib,
			want:     nil,
		},
		{
			name:     "one byte over storage limit",
			snapshot: Snapshot{TotalStorageBytes: 40 * mib},
			incoming: 10*mib + 1,
			want:     ErrStorageLimitExceeded,
		},
		{
			name:     "storage rejection for 10+45 over 50",
			snapshot: Snapshot{TotalStorageBytes: 10 * mib},
			incoming: 45 * mib,
			want:     ErrStorageLimitExceeded,
		},
		{
			name:     "exactly at bandwidth limit is admitted",
			snapshot: Snapshot{TodayBandwidthBytes: 80 * mib},
			incoming: 20 * mib,
			want:     nil,
		},
		{
			name:     "bandwidth exceeded when storage would allow",
			snapshot: Snapshot{TotalStorageBytes: 0, TodayBandwidthBytes: 100 * mib},
			incoming: 1,
			want:     ErrBandwidthLimitExceeded,
		},
		{
			name:     "storage reported first when both exceeded",
			snapshot: Snapshot{TotalStorageBytes: 50 * mib, TodayBandwidthBytes: 100 * mib},
			incoming: mib,
			want:     ErrStorageLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Admit(tt.snapshot, tt.incoming)
			if !errors.Is(got, tt.want) && got != tt.want {
				t.Fatalf("Admit = %v, want %v", got, tt.want)
			}
		})
	}
}
