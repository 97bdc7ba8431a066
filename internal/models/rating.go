package models

import "time"

// JobRating records per-worker QC and cleanliness ratings for a completed
// job. One row per (job, worker); re-rating updates in place.
//
// QCRating outside the 3..4 neutral band requires a non-empty QCReason.
type JobRating struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	JobID          string `gorm:"size:36;not null;uniqueIndex:idx_rating_job_worker"`
	WorkerID       string `gorm:"size:64;not null;uniqueIndex:idx_rating_job_worker"`
	QCRating       *int
	QCReason       string `gorm:"type:text"`
	CleaningRating int    `gorm:"default:0"`
	RatedBy        string `gorm:"size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
