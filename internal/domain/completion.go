package domain

import "time"

// Completion records that an occurrence was performed: who, when and the
// submitted answer. Rows are append-only; re-submission adds another row
// and only the latest one counts as current status, the rest stay as the
// audit trail.
type Completion struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	LocationID   int64     `json:"location_id"`
	Date         time.Time `json:"date"`
	UserID       int64     `json:"user_id"`
	Answer       string    `json:"answer,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}
