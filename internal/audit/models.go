package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one append-only audit record. UserID is nil for actions performed
// before authentication (failed logins, duplicate registrations).
type Entry struct {
	ID          int64      `json:"id"`
	UserID      *uuid.UUID `json:"user_id"`
	Action      string     `json:"action_type"`
	Description string     `json:"description"`
	Service     string     `json:"service_name"`
	CreatedAt   time.Time  `json:"created_at"`
}
