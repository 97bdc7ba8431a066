package models

import "time"

// Pause reason categories.
const (
	PauseReasonBreak     = "break"
	PauseReasonMaterials = "waiting_for_materials"
	PauseReasonUrgent    = "urgent_task"
	PauseReasonAccess    = "waiting_for_access"
	PauseReasonOther     = "other"
)

// Pause resolutions.
const (
	ResolutionPending  = "pending"
	ResolutionApproved = "approved"
	ResolutionRejected = "rejected"
)

// PauseRequest is one entry in the append-only pause ledger. The pause
// itself takes effect immediately; the supervisor's approval is
// retrospective and gates daily-review submission, not the worker.
type PauseRequest struct {
	ID             string     `gorm:"primaryKey;size:36"`
	JobID          string     `gorm:"size:36;not null;index"`
	ReasonCategory string     `gorm:"size:32;not null"`
	ReasonDetails  string     `gorm:"type:text"`
	Resolution     string     `gorm:"size:16;default:pending;index"`
	RequestedAt    time.Time
	ResolvedAt     *time.Time
	ResolvedBy     string     `gorm:"size:64"`
}

// ValidPauseReason reports whether category is a known reason.
func ValidPauseReason(category string) bool {
	switch category {
	case PauseReasonBreak, PauseReasonMaterials, PauseReasonUrgent,
		PauseReasonAccess, PauseReasonOther:
		return true
	}
	return false
}
