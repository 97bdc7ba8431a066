package models

import "time"

// CarryOver links an unfinished original job to its replacement on the next
// working day. The unique index on OriginalJobID is what makes a second
// carry-over of the same job impossible, even under concurrent calls.
type CarryOver struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	OriginalJobID string    `gorm:"size:36;not null;uniqueIndex"`
	NewJobID      string    `gorm:"size:36;not null;index"`
	CarriedOn     time.Time `gorm:"type:date"`
	Reason        string    `gorm:"size:64"`
	CreatedAt     time.Time
}
