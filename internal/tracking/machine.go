// Package tracking implements the job execution state machine and the
// pause-request ledger.
//
// States: not_started → in_progress → {paused ⇄ in_progress} →
// {completed | incomplete}. completed is reachable only from in_progress;
// incomplete from in_progress or paused. Both are terminal.
//
// Every transition runs in one transaction and takes exactly one clock
// read. Serialization per record is optimistic: the transition is a
// status-guarded UPDATE, so of two concurrent callers the first wins and
// the second observes the new state and fails with ErrInvalidTransition.
package tracking

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/worktrack/internal/clock"
	"github.com/zulandar/worktrack/internal/models"
	"gorm.io/gorm"
)

// Notifier receives pause events after they commit. Implementations live in
// internal/notify; delivery is best-effort and must not fail the action.
type Notifier interface {
	PauseRequested(job *models.WorkPlanJob, req *models.PauseRequest)
}

// Machine applies worker and supervisor actions to tracking records.
type Machine struct {
	db       *gorm.DB
	clock    clock.Clock
	notifier Notifier // may be nil
}

// New creates a Machine. notifier may be nil.
func New(db *gorm.DB, clk clock.Clock, notifier Notifier) *Machine {
	return &Machine{db: db, clock: clk, notifier: notifier}
}

// EnsureTracking returns the tracking record for a job, creating it as
// not_started if this is the first action ever requested for the job.
// Idempotent.
func (m *Machine) EnsureTracking(jobID string) (*models.JobTracking, error) {
	var rec models.JobTracking
	err := m.db.Transaction(func(tx *gorm.DB) error {
		r, err := ensureTracking(tx, jobID)
		if err != nil {
			return err
		}
		rec = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get returns the tracking record for a job, or ErrNotFound if the job has
// no record yet.
func (m *Machine) Get(jobID string) (*models.JobTracking, error) {
	var rec models.JobTracking
	if err := m.db.Where("job_id = ?", jobID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tracking: record for job %s: %w", jobID, ErrNotFound)
		}
		return nil, fmt.Errorf("tracking: get record for job %s: %w", jobID, err)
	}
	return &rec, nil
}

// Start moves a job from not_started to in_progress and stamps started_at.
func (m *Machine) Start(jobID string) (*models.JobTracking, error) {
	now := m.clock.Now()
	var rec models.JobTracking

	err := m.db.Transaction(func(tx *gorm.DB) error {
		r, err := ensureTracking(tx, jobID)
		if err != nil {
			return err
		}

		result := tx.Model(&models.JobTracking{}).
			Where("job_id = ? AND status = ?", jobID, models.StatusNotStarted).
			Updates(map[string]interface{}{
				"status":     models.StatusInProgress,
				"started_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("tracking: start job %s: %w", jobID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("tracking: start job %s from %s: %w", jobID, r.Status, ErrInvalidTransition)
		}

		r.Status = models.StatusInProgress
		r.StartedAt = &now
		rec = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Pause moves a job from in_progress to paused and appends a pending entry
// to the pause ledger. The pause takes effect immediately; supervisor
// approval is retrospective.
func (m *Machine) Pause(jobID, reasonCategory, reasonDetails string) (*models.JobTracking, *models.PauseRequest, error) {
	if !models.ValidPauseReason(reasonCategory) {
		return nil, nil, fmt.Errorf("tracking: pause job %s with %q: %w", jobID, reasonCategory, ErrInvalidReason)
	}

	now := m.clock.Now()
	var rec models.JobTracking
	var req models.PauseRequest

	err := m.db.Transaction(func(tx *gorm.DB) error {
		r, err := ensureTracking(tx, jobID)
		if err != nil {
			return err
		}

		result := tx.Model(&models.JobTracking{}).
			Where("job_id = ? AND status = ?", jobID, models.StatusInProgress).
			Updates(map[string]interface{}{
				"status":    models.StatusPaused,
				"paused_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("tracking: pause job %s: %w", jobID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("tracking: pause job %s from %s: %w", jobID, r.Status, ErrInvalidTransition)
		}

		req = models.PauseRequest{
			ID:             uuid.NewString(),
			JobID:          jobID,
			ReasonCategory: reasonCategory,
			ReasonDetails:  reasonDetails,
			Resolution:     models.ResolutionPending,
			RequestedAt:    now,
		}
		if err := tx.Create(&req).Error; err != nil {
			return fmt.Errorf("tracking: append pause request for job %s: %w", jobID, err)
		}

		r.Status = models.StatusPaused
		r.PausedAt = &now
		rec = *r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if m.notifier != nil {
		var job models.WorkPlanJob
		if err := m.db.Where("id = ?", jobID).First(&job).Error; err == nil {
			m.notifier.PauseRequested(&job, &req)
		}
	}
	return &rec, &req, nil
}

// Resume moves a job from paused back to in_progress, folding the closed
// pause interval into total_paused_minutes. It does not resolve the pending
// ledger entry; resolution is a separate supervisor action.
func (m *Machine) Resume(jobID string) (*models.JobTracking, error) {
	now := m.clock.Now()
	var rec models.JobTracking

	err := m.db.Transaction(func(tx *gorm.DB) error {
		r, err := ensureTracking(tx, jobID)
		if err != nil {
			return err
		}
		if r.Status != models.StatusPaused || r.PausedAt == nil {
			return fmt.Errorf("tracking: resume job %s from %s: %w", jobID, r.Status, ErrInvalidTransition)
		}

		minutes := pausedMinutes(*r.PausedAt, now)
		result := tx.Model(&models.JobTracking{}).
			Where("job_id = ? AND status = ?", jobID, models.StatusPaused).
			Updates(map[string]interface{}{
				"status":               models.StatusInProgress,
				"paused_at":            nil,
				"total_paused_minutes": gorm.Expr("total_paused_minutes + ?", minutes),
			})
		if result.Error != nil {
			return fmt.Errorf("tracking: resume job %s: %w", jobID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("tracking: resume job %s: %w", jobID, ErrInvalidTransition)
		}

		r.Status = models.StatusInProgress
		r.PausedAt = nil
		r.TotalPausedMinutes += minutes
		rec = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Complete moves a job from in_progress to completed, stamps completed_at
// and computes actual_hours. A paused job must resume first.
func (m *Machine) Complete(jobID, workNotes string) (*models.JobTracking, error) {
	now := m.clock.Now()
	var rec models.JobTracking

	err := m.db.Transaction(func(tx *gorm.DB) error {
		r, err := ensureTracking(tx, jobID)
		if err != nil {
			return err
		}
		if r.Status != models.StatusInProgress || r.StartedAt == nil {
			return fmt.Errorf("tracking: complete job %s from %s: %w", jobID, r.Status, ErrInvalidTransition)
		}

		hours := actualHours(*r.StartedAt, now, r.TotalPausedMinutes)
		result := tx.Model(&models.JobTracking{}).
			Where("job_id = ? AND status = ?", jobID, models.StatusInProgress).
			Updates(map[string]interface{}{
				"status":       models.StatusCompleted,
				"completed_at": now,
				"actual_hours": hours,
			})
		if result.Error != nil {
			return fmt.Errorf("tracking: complete job %s: %w", jobID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("tracking: complete job %s: %w", jobID, ErrInvalidTransition)
		}

		if workNotes != "" {
			if err := tx.Model(&models.WorkPlanJob{}).Where("id = ?", jobID).
				Update("work_notes", workNotes).Error; err != nil {
				return fmt.Errorf("tracking: save work notes for job %s: %w", jobID, err)
			}
		}

		r.Status = models.StatusCompleted
		r.CompletedAt = &now
		r.ActualHours = &hours
		rec = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkIncomplete terminally marks a job incomplete from in_progress or
// paused, recording the reason for carry-over audit. No completed_at or
// actual_hours is set. A pause interval still open at this moment is folded
// into total_paused_minutes so the record stays accountable.
func (m *Machine) MarkIncomplete(jobID, reasonCategory, reasonDetails string) (*models.JobTracking, error) {
	if !models.ValidPauseReason(reasonCategory) {
		return nil, fmt.Errorf("tracking: mark job %s incomplete with %q: %w", jobID, reasonCategory, ErrInvalidReason)
	}

	now := m.clock.Now()
	var rec models.JobTracking

	err := m.db.Transaction(func(tx *gorm.DB) error {
		r, err := ensureTracking(tx, jobID)
		if err != nil {
			return err
		}
		if r.Status != models.StatusInProgress && r.Status != models.StatusPaused {
			return fmt.Errorf("tracking: mark job %s incomplete from %s: %w", jobID, r.Status, ErrInvalidTransition)
		}

		updates := map[string]interface{}{
			"status":             models.StatusIncomplete,
			"incomplete_reason":  reasonCategory,
			"incomplete_details": reasonDetails,
		}
		extraPaused := 0
		if r.Status == models.StatusPaused && r.PausedAt != nil {
			extraPaused = pausedMinutes(*r.PausedAt, now)
			updates["paused_at"] = nil
			updates["total_paused_minutes"] = gorm.Expr("total_paused_minutes + ?", extraPaused)
		}

		result := tx.Model(&models.JobTracking{}).
			Where("job_id = ? AND status = ?", jobID, r.Status).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("tracking: mark job %s incomplete: %w", jobID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("tracking: mark job %s incomplete: %w", jobID, ErrInvalidTransition)
		}

		r.Status = models.StatusIncomplete
		r.PausedAt = nil
		r.TotalPausedMinutes += extraPaused
		r.IncompleteReason = reasonCategory
		r.IncompleteDetails = reasonDetails
		rec = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ensureTracking loads the tracking record inside tx, creating it lazily as
// not_started. Fails with ErrNotFound when the job itself doesn't exist.
func ensureTracking(tx *gorm.DB, jobID string) (*models.JobTracking, error) {
	var rec models.JobTracking
	err := tx.Where("job_id = ?", jobID).First(&rec).Error
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("tracking: load record for job %s: %w", jobID, err)
	}

	var count int64
	if err := tx.Model(&models.WorkPlanJob{}).Where("id = ?", jobID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("tracking: look up job %s: %w", jobID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("tracking: job %s: %w", jobID, ErrNotFound)
	}

	rec = models.JobTracking{JobID: jobID, Status: models.StatusNotStarted}
	if err := tx.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("tracking: create record for job %s: %w", jobID, err)
	}
	return &rec, nil
}

// pausedMinutes is the length of a closed pause interval, rounded to the
// nearest whole minute.
func pausedMinutes(pausedAt, resumedAt time.Time) int {
	if resumedAt.Before(pausedAt) {
		return 0
	}
	return int(math.Round(resumedAt.Sub(pausedAt).Minutes()))
}

// actualHours is the net working time in hours, never negative.
func actualHours(startedAt, completedAt time.Time, totalPausedMinutes int) float64 {
	h := completedAt.Sub(startedAt).Hours() - float64(totalPausedMinutes)/60
	if h < 0 {
		return 0
	}
	return h
}
