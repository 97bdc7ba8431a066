// Package review builds the per-day, per-shift rollup of tracking state and
// gates its submission on a fully resolved pause ledger.
//
// The DailyReview row is a materialized view: every derived field can be
// rebuilt from tracking records and the pause ledger at any time. Only
// Status, SubmittedAt and SubmittedBy carry state of their own.
package review

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/zulandar/worktrack/internal/clock"
	"github.com/zulandar/worktrack/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier receives the submitted review after it commits. Delivery is
// best-effort and must not fail the submission.
type Notifier interface {
	ReviewSubmitted(rev *models.DailyReview)
}

// Service computes and submits daily reviews.
type Service struct {
	db       *gorm.DB
	clock    clock.Clock
	notifier Notifier // may be nil
}

// NewService creates a Service. notifier may be nil.
func NewService(db *gorm.DB, clk clock.Clock, notifier Notifier) *Service {
	return &Service{db: db, clock: clk, notifier: notifier}
}

// Compute rolls up tracking records and pause requests for all jobs
// scheduled on (date, shift). It reads only; nothing is persisted. Jobs
// without a tracking record yet count as not_started.
func (s *Service) Compute(date time.Time, shift string) (*models.DailyReview, error) {
	var rev models.DailyReview
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		r, err := compute(tx, date, shift)
		if err != nil {
			return err
		}
		rev = *r
		return nil
	}); err != nil {
		return nil, err
	}
	return &rev, nil
}

// Refresh recomputes the rollup and upserts the materialized row for
// (date, shift). A review already submitted is left untouched; its numbers
// are a snapshot of the moment it was submitted.
func (s *Service) Refresh(date time.Time, shift string) (*models.DailyReview, error) {
	var rev models.DailyReview
	err := s.db.Transaction(func(tx *gorm.DB) error {
		day := models.DateOnly(date)
		var existing models.DailyReview
		err := tx.Where("review_date = ? AND shift = ?", day, shift).First(&existing).Error
		if err == nil && existing.Status == models.ReviewSubmitted {
			rev = existing
			return nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("review: load %s %s: %w", day.Format("2006-01-02"), shift, err)
		}

		r, err := compute(tx, date, shift)
		if err != nil {
			return err
		}
		if err := upsert(tx, r); err != nil {
			return err
		}
		rev = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// compute builds the rollup inside tx without persisting it.
func compute(tx *gorm.DB, date time.Time, shift string) (*models.DailyReview, error) {
	if shift != models.ShiftDay && shift != models.ShiftNight {
		return nil, fmt.Errorf("review: shift %q: %w", shift, ErrInvalidShift)
	}
	day := models.DateOnly(date)

	var jobIDs []string
	if err := tx.Model(&models.WorkPlanJob{}).
		Where("plan_date = ? AND shift = ?", day, shift).
		Pluck("id", &jobIDs).Error; err != nil {
		return nil, fmt.Errorf("review: list jobs for %s %s: %w", day.Format("2006-01-02"), shift, err)
	}

	rev := &models.DailyReview{
		ReviewDate: day,
		Shift:      shift,
		TotalJobs:  len(jobIDs),
		Status:     models.ReviewDraft,
	}
	if len(jobIDs) == 0 {
		return rev, nil
	}

	var recs []models.JobTracking
	if err := tx.Where("job_id IN ?", jobIDs).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("review: load tracking records: %w", err)
	}
	tracked := make(map[string]string, len(recs))
	for _, r := range recs {
		tracked[r.JobID] = r.Status
	}
	for _, id := range jobIDs {
		switch tracked[id] {
		case models.StatusCompleted:
			rev.ApprovedJobs++
		case models.StatusIncomplete:
			rev.IncompleteJobs++
		case models.StatusInProgress, models.StatusPaused:
			rev.InProgressJobs++
		default:
			// No record yet, or still not_started.
			rev.NotStartedJobs++
		}
	}
	rev.CompletionRate = int(math.Round(100 * float64(rev.ApprovedJobs) / float64(rev.TotalJobs)))

	var total, resolved int64
	if err := tx.Model(&models.PauseRequest{}).
		Where("job_id IN ?", jobIDs).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("review: count pause requests: %w", err)
	}
	if err := tx.Model(&models.PauseRequest{}).
		Where("job_id IN ? AND resolution <> ?", jobIDs, models.ResolutionPending).
		Count(&resolved).Error; err != nil {
		return nil, fmt.Errorf("review: count resolved pause requests: %w", err)
	}
	rev.TotalPauseRequests = int(total)
	rev.ResolvedPauseRequests = int(resolved)
	return rev, nil
}

// upsert writes the derived fields for (review_date, shift), leaving
// Status/SubmittedAt/SubmittedBy alone on conflict.
func upsert(tx *gorm.DB, rev *models.DailyReview) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "review_date"}, {Name: "shift"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_jobs", "approved_jobs", "incomplete_jobs",
			"not_started_jobs", "in_progress_jobs", "completion_rate",
			"total_pause_requests", "resolved_pause_requests", "updated_at",
		}),
	}).Create(rev).Error
	if err != nil {
		return fmt.Errorf("review: upsert %s %s: %w", rev.ReviewDate.Format("2006-01-02"), rev.Shift, err)
	}
	return nil
}
