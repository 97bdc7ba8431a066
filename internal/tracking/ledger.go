package tracking

import (
	"errors"
	"fmt"

	"github.com/zulandar/worktrack/internal/models"
	"gorm.io/gorm"
)

// ResolvePause records the supervisor's decision on one pause-request
// ledger entry. decision must be approved or rejected. Each entry resolves
// at most once; a second call fails with ErrAlreadyResolved and never
// changes the stored resolution.
func (m *Machine) ResolvePause(requestID, decision, resolvedBy string) (*models.PauseRequest, error) {
	if decision != models.ResolutionApproved && decision != models.ResolutionRejected {
		return nil, fmt.Errorf("tracking: resolve pause %s with %q: %w", requestID, decision, ErrInvalidReason)
	}

	now := m.clock.Now()
	var req models.PauseRequest

	err := m.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PauseRequest{}).
			Where("id = ? AND resolution = ?", requestID, models.ResolutionPending).
			Updates(map[string]interface{}{
				"resolution":  decision,
				"resolved_at": now,
				"resolved_by": resolvedBy,
			})
		if result.Error != nil {
			return fmt.Errorf("tracking: resolve pause %s: %w", requestID, result.Error)
		}
		if result.RowsAffected == 0 {
			// Distinguish a missing entry from one already decided.
			var existing models.PauseRequest
			if err := tx.Where("id = ?", requestID).First(&existing).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("tracking: pause request %s: %w", requestID, ErrNotFound)
				}
				return fmt.Errorf("tracking: load pause request %s: %w", requestID, err)
			}
			return fmt.Errorf("tracking: pause request %s is %s: %w", requestID, existing.Resolution, ErrAlreadyResolved)
		}

		if err := tx.Where("id = ?", requestID).First(&req).Error; err != nil {
			return fmt.Errorf("tracking: reload pause request %s: %w", requestID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// PauseHistory returns all ledger entries for a job, oldest first.
func (m *Machine) PauseHistory(jobID string) ([]models.PauseRequest, error) {
	var reqs []models.PauseRequest
	if err := m.db.Where("job_id = ?", jobID).
		Order("requested_at ASC, id ASC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("tracking: pause history for job %s: %w", jobID, err)
	}
	return reqs, nil
}

// PendingPauses returns all unresolved entries across jobs, oldest first.
// The SSE feed and the supervisor inbox read from this.
func (m *Machine) PendingPauses() ([]models.PauseRequest, error) {
	var reqs []models.PauseRequest
	if err := m.db.Where("resolution = ?", models.ResolutionPending).
		Order("requested_at ASC, id ASC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("tracking: pending pauses: %w", err)
	}
	return reqs, nil
}
