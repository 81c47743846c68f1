package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	repoTimeout = 5 * time.Second
	// PageSize bounds log listings, matching the caller-facing pagination.
	PageSize = 100
)

// Repository stores and queries audit log records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one audit record.
func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	query := `
INSERT INTO audit_logs (user_id, action_type, description, service_name, created_at)
VALUES ($1, $2, $3, $4, $5);`

	if _, err := r.pool.Exec(ctx, query, entry.UserID, entry.Action, entry.Description, entry.Service, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByUser returns one page of a user's audit records, newest first, with
// the total count.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, start int) ([]Entry, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs WHERE user_id = $1;`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := `
SELECT id, user_id, action_type, description, service_name, created_at
FROM audit_logs
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;`

	rows, err := r.pool.Query(ctx, query, userID, PageSize, start)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListAll returns one page of all audit records, newest first, with the total
// count. Callers are expected to gate this behind an admin check.
func (r *Repository) ListAll(ctx context.Context, start int) ([]Entry, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs;`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := `
SELECT id, user_id, action_type, description, service_name, created_at
FROM audit_logs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2;`

	rows, err := r.pool.Query(ctx, query, PageSize, start)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntries(rows rowScanner) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Description, &entry.Service, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return entries, nil
}
