// Package carryover clones unfinished jobs onto the next working day,
// preserving lineage through a CarryOver link.
package carryover

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zulandar/worktrack/internal/clock"
	"github.com/zulandar/worktrack/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrInvalidState means the original job is not incomplete or
	// not_started; completed or still-running jobs cannot be carried over.
	ErrInvalidState = errors.New("job not eligible for carry-over")

	// ErrAlreadyCarriedOver means a carry-over link already exists for the
	// original job.
	ErrAlreadyCarriedOver = errors.New("job already carried over")

	// ErrNotFound means the original job does not exist.
	ErrNotFound = errors.New("job not found")
)

// Service creates replacement jobs for unfinished originals.
type Service struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewService creates a Service.
func NewService(db *gorm.DB, clk clock.Clock) *Service {
	return &Service{db: db, clock: clk}
}

// CarryOver clones the original job onto the next working day (calendar
// day + 1) with the same type, references, estimate, priority and
// assignment list, creates a fresh not_started tracking record for the
// clone, and records the lineage link. The original must be incomplete or
// not_started; a job with no tracking record yet counts as not_started.
// The unique index on the link's original_job_id makes a duplicate
// carry-over impossible even under concurrent calls.
func (s *Service) CarryOver(originalJobID string) (*models.WorkPlanJob, error) {
	now := s.clock.Now()
	var clone models.WorkPlanJob

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var orig models.WorkPlanJob
		if err := tx.Where("id = ?", originalJobID).First(&orig).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("carryover: job %s: %w", originalJobID, ErrNotFound)
			}
			return fmt.Errorf("carryover: load job %s: %w", originalJobID, err)
		}

		status := models.StatusNotStarted
		reason := ""
		var rec models.JobTracking
		err := tx.Where("job_id = ?", originalJobID).First(&rec).Error
		if err == nil {
			status = rec.Status
			reason = rec.IncompleteReason
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("carryover: load tracking for job %s: %w", originalJobID, err)
		}
		if status != models.StatusIncomplete && status != models.StatusNotStarted {
			return fmt.Errorf("carryover: job %s is %s: %w", originalJobID, status, ErrInvalidState)
		}

		var links int64
		if err := tx.Model(&models.CarryOver{}).
			Where("original_job_id = ?", originalJobID).Count(&links).Error; err != nil {
			return fmt.Errorf("carryover: check link for job %s: %w", originalJobID, err)
		}
		if links > 0 {
			return fmt.Errorf("carryover: job %s: %w", originalJobID, ErrAlreadyCarriedOver)
		}

		clone = models.WorkPlanJob{
			ID:             uuid.NewString(),
			Title:          orig.Title,
			JobType:        orig.JobType,
			EquipmentRef:   orig.EquipmentRef,
			DefectRef:      orig.DefectRef,
			PlanDate:       orig.PlanDate.AddDate(0, 0, 1),
			Shift:          orig.Shift,
			EstimatedHours: orig.EstimatedHours,
			Priority:       orig.Priority,
			Published:      orig.Published,
		}
		if err := tx.Create(&clone).Error; err != nil {
			return fmt.Errorf("carryover: create clone of job %s: %w", originalJobID, err)
		}

		var assignments []models.JobAssignment
		if err := tx.Where("job_id = ?", originalJobID).Find(&assignments).Error; err != nil {
			return fmt.Errorf("carryover: load assignments for job %s: %w", originalJobID, err)
		}
		for _, a := range assignments {
			na := models.JobAssignment{JobID: clone.ID, WorkerID: a.WorkerID, Lead: a.Lead}
			if err := tx.Create(&na).Error; err != nil {
				return fmt.Errorf("carryover: copy assignment %s: %w", a.WorkerID, err)
			}
		}

		if err := tx.Create(&models.JobTracking{
			JobID:  clone.ID,
			Status: models.StatusNotStarted,
		}).Error; err != nil {
			return fmt.Errorf("carryover: create tracking for clone %s: %w", clone.ID, err)
		}

		link := models.CarryOver{
			OriginalJobID: originalJobID,
			NewJobID:      clone.ID,
			CarriedOn:     models.DateOnly(now),
			Reason:        carryReason(status, reason),
		}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("carryover: link job %s: %w", originalJobID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &clone, nil
}

// History returns all carry-over links touching a job, either as the
// original or as the replacement.
func (s *Service) History(jobID string) ([]models.CarryOver, error) {
	var links []models.CarryOver
	if err := s.db.Where("original_job_id = ? OR new_job_id = ?", jobID, jobID).
		Order("created_at ASC, id ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("carryover: history for job %s: %w", jobID, err)
	}
	return links, nil
}

// carryReason is the audit tag stored on the link.
func carryReason(status, incompleteReason string) string {
	if status == models.StatusNotStarted {
		return "not_started"
	}
	if incompleteReason != "" {
		return incompleteReason
	}
	return models.StatusIncomplete
}
