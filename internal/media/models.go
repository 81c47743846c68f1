package media

import (
	"time"

	"github.com/google/uuid"
)

// Record is the metadata row for one stored media object. A non-nil DeletedAt
// marks a tombstone; the record is then invisible to listings and quota math.
type Record struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	SizeBytes   int64      `json:"size_bytes"`
	ObjectName  string     `json:"object_name"`
	ContentType string     `json:"content_type"`
	Checksum    string     `json:"checksum"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}
