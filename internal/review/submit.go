package review

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/worktrack/internal/models"
	"gorm.io/gorm"
)

// Submit recomputes the rollup and, if every in-scope pause request is
// resolved, marks the review submitted. The recompute and the gate check run
// in the same transaction as the status flip, so a pause resolved (or
// raised) concurrently is either fully counted or fails the guarded update.
// Submission is one-way; a second call fails with ErrAlreadySubmitted.
func (s *Service) Submit(date time.Time, shift, submittedBy string) (*models.DailyReview, error) {
	now := s.clock.Now()
	day := models.DateOnly(date)
	var rev models.DailyReview

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.DailyReview
		err := tx.Where("review_date = ? AND shift = ?", day, shift).First(&existing).Error
		if err == nil && existing.Status == models.ReviewSubmitted {
			return fmt.Errorf("review: %s %s: %w", day.Format("2006-01-02"), shift, ErrAlreadySubmitted)
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("review: load %s %s: %w", day.Format("2006-01-02"), shift, err)
		}

		r, err := compute(tx, date, shift)
		if err != nil {
			return err
		}
		if r.HasUnresolvedPauses() {
			return fmt.Errorf("review: %s %s has %d pending pause requests: %w",
				day.Format("2006-01-02"), shift,
				r.TotalPauseRequests-r.ResolvedPauseRequests, ErrUnresolvedPauses)
		}
		if err := upsert(tx, r); err != nil {
			return err
		}

		result := tx.Model(&models.DailyReview{}).
			Where("review_date = ? AND shift = ? AND status = ?", day, shift, models.ReviewDraft).
			Updates(map[string]interface{}{
				"status":       models.ReviewSubmitted,
				"submitted_at": now,
				"submitted_by": submittedBy,
			})
		if result.Error != nil {
			return fmt.Errorf("review: submit %s %s: %w", day.Format("2006-01-02"), shift, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("review: %s %s: %w", day.Format("2006-01-02"), shift, ErrAlreadySubmitted)
		}

		if err := tx.Where("review_date = ? AND shift = ?", day, shift).First(&rev).Error; err != nil {
			return fmt.Errorf("review: reload %s %s: %w", day.Format("2006-01-02"), shift, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.ReviewSubmitted(&rev)
	}
	return &rev, nil
}
