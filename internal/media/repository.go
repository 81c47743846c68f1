package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository provides access to media metadata storage. Records are never
// physically deleted here; lifecycle operations write tombstones only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new media repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, user_id, title, size_bytes, object_name, content_type, checksum, created_at, deleted_at`

// Insert persists metadata for a newly committed upload.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO media (id, user_id, title, size_bytes, object_name, content_type, checksum, created_at, deleted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL)
RETURNING ` + recordColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Title,
		rec.SizeBytes,
		rec.ObjectName,
		rec.ContentType,
		rec.Checksum,
		rec.CreatedAt,
	)

	stored, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("insert media record: %w", err)
	}
	return stored, nil
}

// Get fetches a single record by identifier, tombstoned or not.
func (r *Repository) Get(ctx context.Context, mediaID uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM media WHERE id = $1;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, mediaID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get media record: %w", err)
	}
	return rec, nil
}

// ListLive returns one page of live records across all users, newest first,
// with the total live count.
func (r *Repository) ListLive(ctx context.Context, start, limit int) ([]Record, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media WHERE deleted_at IS NULL;`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count live media: %w", err)
	}

	query := `
SELECT ` + recordColumns + `
FROM media
WHERE deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $1 OFFSET $2;`

	rows, err := r.pool.Query(ctx, query, limit, start)
	if err != nil {
		return nil, 0, fmt.Errorf("list live media: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListLiveByUser returns one page of a user's live records, newest first, with
// the user's total live count.
func (r *Repository) ListLiveByUser(ctx context.Context, userID uuid.UUID, start, limit int) ([]Record, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media WHERE user_id = $1 AND deleted_at IS NULL;`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user media: %w", err)
	}

	query := `
SELECT ` + recordColumns + `
FROM media
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;`

	rows, err := r.pool.Query(ctx, query, userID, limit, start)
	if err != nil {
		return nil, 0, fmt.Errorf("list user media: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// LiveByUser returns every live record for a user, for bulk lifecycle work.
func (r *Repository) LiveByUser(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM media WHERE user_id = $1 AND deleted_at IS NULL;`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user media: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SumLiveSizes returns the total size of a user's live records.
func (r *Repository) SumLiveSizes(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT COALESCE(SUM(size_bytes), 0) FROM media WHERE user_id = $1 AND deleted_at IS NULL;`

	var total int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum live sizes: %w", err)
	}
	return total, nil
}

// SumSizesCreatedBetween returns the total size of a user's records created in
// [from, to). Tombstoned records still count; bandwidth was spent uploading
// them.
func (r *Repository) SumSizesCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT COALESCE(SUM(size_bytes), 0)
FROM media
WHERE user_id = $1 AND created_at >= $2 AND created_at < $3;`

	var total int64
	if err := r.pool.QueryRow(ctx, query, userID, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum daily sizes: %w", err)
	}
	return total, nil
}

// Tombstone marks the given records deleted in one statement.
func (r *Repository) Tombstone(ctx context.Context, mediaIDs []uuid.UUID, at time.Time) error {
	if len(mediaIDs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `UPDATE media SET deleted_at = $2 WHERE id = ANY($1) AND deleted_at IS NULL;`

	if _, err := r.pool.Exec(ctx, query, mediaIDs, at); err != nil {
		return fmt.Errorf("tombstone media: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Title,
		&rec.SizeBytes,
		&rec.ObjectName,
		&rec.ContentType,
		&rec.Checksum,
		&rec.CreatedAt,
		&rec.DeletedAt,
	)
	return rec, err
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media records: %w", err)
	}
	return records, nil
}
