// Package rating records per-worker QC and cleanliness ratings for
// completed jobs.
package rating

import (
	"errors"
	"fmt"

	"github.com/zulandar/worktrack/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotCompleted means the job has not reached completed; ratings only
	// apply to finished work.
	ErrNotCompleted = errors.New("job not completed")

	// ErrNotAssigned means the worker is not on the job's assignment list.
	ErrNotAssigned = errors.New("worker not assigned to job")

	// ErrOutOfRange means a rating value is outside its scale.
	ErrOutOfRange = errors.New("rating out of range")

	// ErrReasonRequired means a QC rating outside the 3..4 neutral band was
	// given without a reason.
	ErrReasonRequired = errors.New("qc reason required")

	// ErrNotFound means the job does not exist.
	ErrNotFound = errors.New("job not found")
)

// Input is one worker's rating for one job.
type Input struct {
	QCRating       *int   `json:"qc_rating"`
	QCReason       string `json:"qc_reason"`
	CleaningRating int    `json:"cleaning_rating"`
	RatedBy        string `json:"rated_by"`
}

// Service validates and upserts job ratings.
type Service struct {
	db *gorm.DB
}

// NewService creates a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Rate upserts the rating for (jobID, workerID). The job must be completed
// and the worker assigned to it. CleaningRating is 0..2. QCRating, when
// set, is 1..5 and requires a non-empty reason outside the 3..4 band.
// Re-rating the same worker updates the existing row.
func (s *Service) Rate(jobID, workerID string, in Input) (*models.JobRating, error) {
	if in.CleaningRating < 0 || in.CleaningRating > 2 {
		return nil, fmt.Errorf("rating: cleaning rating %d: %w", in.CleaningRating, ErrOutOfRange)
	}
	if in.QCRating != nil {
		if *in.QCRating < 1 || *in.QCRating > 5 {
			return nil, fmt.Errorf("rating: qc rating %d: %w", *in.QCRating, ErrOutOfRange)
		}
		if (*in.QCRating < 3 || *in.QCRating > 4) && in.QCReason == "" {
			return nil, fmt.Errorf("rating: qc rating %d: %w", *in.QCRating, ErrReasonRequired)
		}
	}

	var out models.JobRating
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var jobs int64
		if err := tx.Model(&models.WorkPlanJob{}).Where("id = ?", jobID).Count(&jobs).Error; err != nil {
			return fmt.Errorf("rating: look up job %s: %w", jobID, err)
		}
		if jobs == 0 {
			return fmt.Errorf("rating: job %s: %w", jobID, ErrNotFound)
		}

		var rec models.JobTracking
		if err := tx.Where("job_id = ?", jobID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("rating: job %s: %w", jobID, ErrNotCompleted)
			}
			return fmt.Errorf("rating: load tracking for job %s: %w", jobID, err)
		}
		if rec.Status != models.StatusCompleted {
			return fmt.Errorf("rating: job %s is %s: %w", jobID, rec.Status, ErrNotCompleted)
		}

		var assigned int64
		if err := tx.Model(&models.JobAssignment{}).
			Where("job_id = ? AND worker_id = ?", jobID, workerID).
			Count(&assigned).Error; err != nil {
			return fmt.Errorf("rating: check assignment of %s: %w", workerID, err)
		}
		if assigned == 0 {
			return fmt.Errorf("rating: worker %s on job %s: %w", workerID, jobID, ErrNotAssigned)
		}

		out = models.JobRating{
			JobID:          jobID,
			WorkerID:       workerID,
			QCRating:       in.QCRating,
			QCReason:       in.QCReason,
			CleaningRating: in.CleaningRating,
			RatedBy:        in.RatedBy,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "job_id"}, {Name: "worker_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"qc_rating", "qc_reason", "cleaning_rating", "rated_by", "updated_at",
			}),
		}).Create(&out).Error
		if err != nil {
			return fmt.Errorf("rating: upsert for %s/%s: %w", jobID, workerID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ForJob returns all ratings recorded for a job, ordered by worker.
func (s *Service) ForJob(jobID string) ([]models.JobRating, error) {
	var ratings []models.JobRating
	if err := s.db.Where("job_id = ?", jobID).
		Order("worker_id ASC").Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("rating: list for job %s: %w", jobID, err)
	}
	return ratings, nil
}
