package models

import "time"

// Tracking statuses. The machine in internal/tracking owns the legal
// transitions; completed and incomplete are terminal.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusPaused     = "paused"
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete"
)

// JobTracking is the mutable lifecycle state of one scheduled job
// occurrence. One row per job; created lazily on the first worker action.
//
// CompletedAt and ActualHours are set if and only if Status is completed.
// StartedAt is set if and only if the status has ever left not_started.
// TotalPausedMinutes only ever grows.
type JobTracking struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement"`
	JobID              string     `gorm:"size:36;uniqueIndex;not null"`
	Status             string     `gorm:"size:16;default:not_started;index"`
	StartedAt          *time.Time
	PausedAt           *time.Time
	CompletedAt        *time.Time
	TotalPausedMinutes int        `gorm:"default:0"`
	ActualHours        *float64
	IncompleteReason   string     `gorm:"size:32"`
	IncompleteDetails  string     `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Terminal reports whether no further transition is permitted.
func (t *JobTracking) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusIncomplete
}
