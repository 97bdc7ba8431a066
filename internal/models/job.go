package models

import "time"

// Job types.
const (
	JobTypePreventive = "preventive_maintenance"
	JobTypeDefect     = "defect"
	JobTypeInspection = "inspection"
)

// Shifts.
const (
	ShiftDay   = "day"
	ShiftNight = "night"
)

// WorkPlanJob is a job instance scheduled for one calendar day and shift.
// Immutable once published except by supervisor edit; tracking state lives
// in JobTracking, which references but never owns the job.
type WorkPlanJob struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Title          string    `gorm:"not null"`
	JobType        string    `gorm:"size:32;default:preventive_maintenance;index"`
	EquipmentRef   string    `gorm:"size:64"`
	DefectRef      string    `gorm:"size:64"`
	PlanDate       time.Time `gorm:"type:date;index:idx_plan_date_shift"`
	Shift          string    `gorm:"size:8;default:day;index:idx_plan_date_shift"`
	EstimatedHours float64
	Priority       int    `gorm:"default:2"`
	Published      bool   `gorm:"default:false"`
	WorkNotes      string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Assignments []JobAssignment `gorm:"foreignKey:JobID"`
	Tracking    *JobTracking    `gorm:"foreignKey:JobID"`
	Pauses      []PauseRequest  `gorm:"foreignKey:JobID"`
	Ratings     []JobRating     `gorm:"foreignKey:JobID"`
}

// JobAssignment links a worker to a job. Exactly one assignment per job
// carries Lead = true.
type JobAssignment struct {
	JobID    string `gorm:"primaryKey;size:36"`
	WorkerID string `gorm:"primaryKey;size:64"`
	Lead     bool   `gorm:"default:false"`
}

// DateOnly truncates t to midnight UTC so plan dates compare by calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
