package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/abduss/mediavault/internal/lock"
	"github.com/abduss/mediavault/internal/metrics"
	"github.com/abduss/mediavault/internal/quota"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
)

// pageSize bounds media listings.
const pageSize = 16

const (
	uploadService = "MediaUploadService"
	fetchService  = "MediaFetchService"
	streamService = "MediaStreamService"
	deleteService = "MediaDeleteService"
)

type metadataStore interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, mediaID uuid.UUID) (Record, error)
	ListLive(ctx context.Context, start, limit int) ([]Record, int64, error)
	ListLiveByUser(ctx context.Context, userID uuid.UUID, start, limit int) ([]Record, int64, error)
	LiveByUser(ctx context.Context, userID uuid.UUID) ([]Record, error)
	Tombstone(ctx context.Context, mediaIDs []uuid.UUID, at time.Time) error
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// uploadLock serializes uploads per user; implemented by lock.Store.
type uploadLock interface {
	Acquire(ctx context.Context, userID uuid.UUID) error
	Release(ctx context.Context, userID uuid.UUID) error
}

// usageLedger reports current consumption; implemented by quota.Ledger.
type usageLedger interface {
	CurrentUsage(ctx context.Context, userID uuid.UUID) (quota.Snapshot, error)
}

// auditor dispatches best-effort audit entries; implemented by audit.Emitter.
type auditor interface {
	Emit(userID *uuid.UUID, action, description, service string)
}

// Service coordinates media uploads and lifecycle. Upload holds the per-user
// lock across the whole transfer so at most one upload per user is in flight.
type Service struct {
	repo         metadataStore
	objectStore  objectStore
	locks        uploadLock
	ledger       usageLedger
	policy       quota.Policy
	audit        auditor
	logger       zerolog.Logger
	objectBucket string
	streamTTL    time.Duration
	nowFunc      func() time.Time
}

// NewService constructs a media service.
func NewService(repo metadataStore, store objectStore, locks uploadLock, ledger usageLedger, policy quota.Policy, audit auditor, logger zerolog.Logger, objectBucket string, streamTTL time.Duration) *Service {
	return &Service{
		repo:         repo,
		objectStore:  store,
		locks:        locks,
		ledger:       ledger,
		policy:       policy,
		audit:        audit,
		logger:       logger,
		objectBucket: objectBucket,
		streamTTL:    streamTTL,
		nowFunc:      time.Now,
	}
}

// Upload admits the object against storage and bandwidth quotas, streams it to
// the blob store, then records metadata. The per-user lock is held from
// admission through commit and released on every path; a metadata failure
// triggers a compensating blob delete.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, title string, reader io.Reader, declaredSize int64, contentType string) (Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Record{}, ErrTitleRequired
	}

	if err := s.locks.Acquire(ctx, userID); err != nil {
		if errors.Is(err, lock.ErrBusy) {
			metrics.UploadsRejected.WithLabelValues(metrics.ReasonBusy).Inc()
			s.audit.Emit(&userID, "UPLOAD_MEDIA", "Rejected: upload already in progress", uploadService)
		} else {
			metrics.UploadsRejected.WithLabelValues(metrics.ReasonInternal).Inc()
			s.audit.Emit(&userID, "UPLOAD_MEDIA", "Error: "+err.Error(), uploadService)
		}
		return Record{}, err
	}
	defer func() {
		// Release must happen even when the request context is gone.
		if err := s.locks.Release(context.WithoutCancel(ctx), userID); err != nil {
			s.logger.Error().Err(err).Stringer("user_id", userID).Msg("upload lock release failed")
		}
	}()

	snapshot, err := s.ledger.CurrentUsage(ctx, userID)
	if err != nil {
		metrics.UploadsRejected.WithLabelValues(metrics.ReasonInternal).Inc()
		s.audit.Emit(&userID, "UPLOAD_MEDIA", "Error: "+err.Error(), uploadService)
		return Record{}, err
	}

	if err := s.policy.Admit(snapshot, declaredSize); err != nil {
		switch {
		case errors.Is(err, quota.ErrStorageLimitExceeded):
			metrics.UploadsRejected.WithLabelValues(metrics.ReasonStorage).Inc()
			s.audit.Emit(&userID, "UPLOAD_MEDIA", "Rejected: storage limit exceeded", uploadService)
		case errors.Is(err, quota.ErrBandwidthLimitExceeded):
			metrics.UploadsRejected.WithLabelValues(metrics.ReasonBandwidth).Inc()
			s.audit.Emit(&userID, "UPLOAD_MEDIA", "Rejected: daily bandwidth limit exceeded", uploadService)
		}
		return Record{}, err
	}

	mediaID := uuid.New()
	objectName := fmt.Sprintf("%s/%s", userID.String(), mediaID.String())

	hasher := sha256.New()
	teed := io.TeeReader(reader, hasher)

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.objectStore.PutObject(ctx, s.objectBucket, objectName, teed, declaredSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		metrics.UploadsRejected.WithLabelValues(metrics.ReasonInternal).Inc()
		s.audit.Emit(&userID, "UPLOAD_MEDIA", "Error: blob write failed", uploadService)
		return Record{}, fmt.Errorf("%w: %v", ErrBlobWrite, err)
	}

	// The store's byte count is authoritative over the client-declared size.
	actualSize := info.Size
	if actualSize <= 0 {
		actualSize = declaredSize
	}

	rec := Record{
		ID:          mediaID,
		UserID:      userID,
		Title:       title,
		SizeBytes:   actualSize,
		ObjectName:  objectName,
		ContentType: contentType,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
		CreatedAt:   s.nowFunc().UTC(),
	}

	stored, err := s.repo.Insert(ctx, rec)
	if err != nil {
		if rmErr := s.objectStore.RemoveObject(context.WithoutCancel(ctx), s.objectBucket, objectName, minio.RemoveObjectOptions{}); rmErr != nil {
			s.logger.Error().Err(rmErr).
				Str("object", objectName).
				Msg("compensating blob delete failed, object orphaned")
			s.audit.Emit(&userID, "UPLOAD_MEDIA", "Error: metadata write failed, blob orphaned at "+objectName, uploadService)
		} else {
			s.audit.Emit(&userID, "UPLOAD_MEDIA", "Error: metadata write failed, blob rolled back", uploadService)
		}
		metrics.UploadsRejected.WithLabelValues(metrics.ReasonInternal).Inc()
		return Record{}, fmt.Errorf("%w: %v", ErrMetadataWrite, err)
	}

	metrics.UploadsAccepted.Inc()
	metrics.BytesStored.Add(float64(stored.SizeBytes))
	s.audit.Emit(&userID, "UPLOAD_MEDIA", "User uploaded a new media object", uploadService)

	return stored, nil
}

// List returns one page of live records across all users, newest first.
func (s *Service) List(ctx context.Context, callerID uuid.UUID, start int) ([]Record, int64, error) {
	records, total, err := s.repo.ListLive(ctx, start, pageSize)
	if err != nil {
		s.audit.Emit(&callerID, "FETCH_MEDIA", "Error: "+err.Error(), fetchService)
		return nil, 0, err
	}
	s.audit.Emit(&callerID, "FETCH_MEDIA", "User fetched media with pagination", fetchService)
	return records, total, nil
}

// ListByUser returns one page of the owner's live records. Only the owner may
// list their media.
func (s *Service) ListByUser(ctx context.Context, callerID, ownerID uuid.UUID, start int) ([]Record, int64, error) {
	if callerID != ownerID {
		return nil, 0, ErrNotOwner
	}

	records, total, err := s.repo.ListLiveByUser(ctx, ownerID, start, pageSize)
	if err != nil {
		s.audit.Emit(&callerID, "FETCH_USER_MEDIA", "Error: "+err.Error(), fetchService)
		return nil, 0, err
	}
	s.audit.Emit(&callerID, "FETCH_USER_MEDIA", "User fetched own media with pagination", fetchService)
	return records, total, nil
}

// StreamURL returns a short-lived presigned URL for a live record.
func (s *Service) StreamURL(ctx context.Context, callerID, mediaID uuid.UUID) (string, error) {
	rec, err := s.repo.Get(ctx, mediaID)
	if err != nil {
		return "", err
	}
	if rec.DeletedAt != nil {
		return "", ErrNotFound
	}

	u, err := s.objectStore.PresignedGetObject(ctx, s.objectBucket, rec.ObjectName, s.streamTTL, url.Values{})
	if err != nil {
		s.audit.Emit(&callerID, "STREAM_MEDIA", "Error: "+err.Error(), streamService)
		return "", fmt.Errorf("presign stream url: %w", err)
	}

	s.audit.Emit(&callerID, "STREAM_MEDIA", "User streamed media "+mediaID.String(), streamService)
	return u.String(), nil
}

// DeleteOne soft-deletes a single record owned by the caller. The blob delete
// must succeed before the tombstone is written; a failed blob delete aborts
// without touching metadata.
func (s *Service) DeleteOne(ctx context.Context, userID, mediaID uuid.UUID) error {
	rec, err := s.repo.Get(ctx, mediaID)
	if err != nil {
		return err
	}
	if rec.UserID != userID {
		return ErrNotOwner
	}
	if rec.DeletedAt != nil {
		return ErrNotFound
	}

	if err := s.objectStore.RemoveObject(ctx, s.objectBucket, rec.ObjectName, minio.RemoveObjectOptions{}); err != nil {
		s.audit.Emit(&userID, "DELETE_MEDIA", "Error: blob delete failed for "+rec.ObjectName, deleteService)
		return fmt.Errorf("%w: %v", ErrBlobDelete, err)
	}

	if err := s.repo.Tombstone(ctx, []uuid.UUID{rec.ID}, s.nowFunc().UTC()); err != nil {
		s.audit.Emit(&userID, "DELETE_MEDIA", "Error: tombstone failed for "+rec.ID.String(), deleteService)
		return fmt.Errorf("%w: %v", ErrMetadataWrite, err)
	}

	s.audit.Emit(&userID, "DELETE_MEDIA", "User deleted media "+rec.ID.String(), deleteService)
	return nil
}

// DeleteAll soft-deletes every live record owned by the user. All blob
// deletions are attempted; records are tombstoned in one update only when
// every deletion succeeded, otherwise nothing is tombstoned and
// ErrPartialDelete is returned.
func (s *Service) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	records, err := s.repo.LiveByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	failed := 0
	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		if err := s.objectStore.RemoveObject(ctx, s.objectBucket, rec.ObjectName, minio.RemoveObjectOptions{}); err != nil {
			failed++
			s.logger.Error().Err(err).Str("object", rec.ObjectName).Msg("bulk blob delete failed")
		}
	}

	if failed > 0 {
		s.audit.Emit(&userID, "DELETE_ALL_MEDIA", fmt.Sprintf("Error: %d of %d blob deletions failed", failed, len(records)), deleteService)
		return 0, fmt.Errorf("%w: %d of %d blob deletions failed", ErrPartialDelete, failed, len(records))
	}

	if err := s.repo.Tombstone(ctx, ids, s.nowFunc().UTC()); err != nil {
		s.audit.Emit(&userID, "DELETE_ALL_MEDIA", "Error: bulk tombstone failed", deleteService)
		return 0, fmt.Errorf("%w: %v", ErrMetadataWrite, err)
	}

	s.audit.Emit(&userID, "DELETE_ALL_MEDIA", "User deleted all their media", deleteService)
	return len(records), nil
}
