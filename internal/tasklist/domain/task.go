package domain

import "time"

// Task is a single task-list entry owned by the user who created it.
// CompletedAt is non-nil exactly when Completed is true; the service layer
// enforces that on every update, not just at creation.
type Task struct {
	ID          string     `json:"id"`
	CreatorID   string     `json:"creator_id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
