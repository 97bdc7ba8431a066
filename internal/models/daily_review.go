package models

import "time"

// Review statuses.
const (
	ReviewDraft     = "draft"
	ReviewSubmitted = "submitted"
)

// DailyReview is the materialized rollup for one (date, shift). Everything
// except Status/SubmittedAt/SubmittedBy is derived and can be rebuilt from
// tracking records and the pause ledger at any time.
type DailyReview struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement"`
	ReviewDate            time.Time `gorm:"type:date;uniqueIndex:idx_review_date_shift"`
	Shift                 string    `gorm:"size:8;uniqueIndex:idx_review_date_shift"`
	TotalJobs             int
	ApprovedJobs          int
	IncompleteJobs        int
	NotStartedJobs        int
	InProgressJobs        int
	CompletionRate        int
	TotalPauseRequests    int
	ResolvedPauseRequests int
	Status                string     `gorm:"size:16;default:draft"`
	SubmittedAt           *time.Time
	SubmittedBy           string     `gorm:"size:64"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasUnresolvedPauses reports whether any in-scope pause request is still pending.
func (r *DailyReview) HasUnresolvedPauses() bool {
	return r.ResolvedPauseRequests < r.TotalPauseRequests
}

// CanSubmit reports whether the supervisor may submit this review.
func (r *DailyReview) CanSubmit() bool {
	return !r.HasUnresolvedPauses()
}
