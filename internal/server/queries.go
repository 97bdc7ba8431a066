package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/worktrack/internal/models"
	"github.com/zulandar/worktrack/internal/tracking"
	"gorm.io/gorm"
)

// trackingResponse is the read model for one tracking record, with the
// timer projection clients use to paint elapsed time.
type trackingResponse struct {
	JobID              string         `json:"job_id"`
	Status             string         `json:"status"`
	StartedAt          *time.Time     `json:"started_at,omitempty"`
	PausedAt           *time.Time     `json:"paused_at,omitempty"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	TotalPausedMinutes int            `json:"total_paused_minutes"`
	ActualHours        *float64       `json:"actual_hours,omitempty"`
	IncompleteReason   string         `json:"incomplete_reason,omitempty"`
	IncompleteDetails  string         `json:"incomplete_details,omitempty"`
	Timer              tracking.Timer `json:"timer"`
}

func trackingView(rec *models.JobTracking, now time.Time) trackingResponse {
	return trackingResponse{
		JobID:              rec.JobID,
		Status:             rec.Status,
		StartedAt:          rec.StartedAt,
		PausedAt:           rec.PausedAt,
		CompletedAt:        rec.CompletedAt,
		TotalPausedMinutes: rec.TotalPausedMinutes,
		ActualHours:        rec.ActualHours,
		IncompleteReason:   rec.IncompleteReason,
		IncompleteDetails:  rec.IncompleteDetails,
		Timer:              tracking.Project(rec, now),
	}
}

// reviewResponse adds the derived gate fields to the stored rollup.
type reviewResponse struct {
	ReviewDate            string     `json:"review_date"`
	Shift                 string     `json:"shift"`
	TotalJobs             int        `json:"total_jobs"`
	ApprovedJobs          int        `json:"approved_jobs"`
	IncompleteJobs        int        `json:"incomplete_jobs"`
	NotStartedJobs        int        `json:"not_started_jobs"`
	InProgressJobs        int        `json:"in_progress_jobs"`
	CompletionRate        int        `json:"completion_rate"`
	TotalPauseRequests    int        `json:"total_pause_requests"`
	ResolvedPauseRequests int        `json:"resolved_pause_requests"`
	HasUnresolvedPauses   bool       `json:"has_unresolved_pauses"`
	CanSubmit             bool       `json:"can_submit"`
	Status                string     `json:"status"`
	SubmittedAt           *time.Time `json:"submitted_at,omitempty"`
	SubmittedBy           string     `json:"submitted_by,omitempty"`
}

func reviewView(rev *models.DailyReview) reviewResponse {
	return reviewResponse{
		ReviewDate:            rev.ReviewDate.Format("2006-01-02"),
		Shift:                 rev.Shift,
		TotalJobs:             rev.TotalJobs,
		ApprovedJobs:          rev.ApprovedJobs,
		IncompleteJobs:        rev.IncompleteJobs,
		NotStartedJobs:        rev.NotStartedJobs,
		InProgressJobs:        rev.InProgressJobs,
		CompletionRate:        rev.CompletionRate,
		TotalPauseRequests:    rev.TotalPauseRequests,
		ResolvedPauseRequests: rev.ResolvedPauseRequests,
		HasUnresolvedPauses:   rev.HasUnresolvedPauses(),
		CanSubmit:             rev.CanSubmit(),
		Status:                rev.Status,
		SubmittedAt:           rev.SubmittedAt,
		SubmittedBy:           rev.SubmittedBy,
	}
}

// jobResponse is the read model for one job with its tracking state.
type jobResponse struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	JobType        string                 `json:"job_type"`
	EquipmentRef   string                 `json:"equipment_ref,omitempty"`
	DefectRef      string                 `json:"defect_ref,omitempty"`
	PlanDate       string                 `json:"plan_date"`
	Shift          string                 `json:"shift"`
	EstimatedHours float64                `json:"estimated_hours"`
	Priority       int                    `json:"priority"`
	Published      bool                   `json:"published"`
	WorkNotes      string                 `json:"work_notes,omitempty"`
	Assignments    []models.JobAssignment `json:"assignments"`
	Tracking       trackingResponse       `json:"tracking"`
}

func (s *Server) jobView(job *models.WorkPlanJob, now time.Time) jobResponse {
	rec := job.Tracking
	if rec == nil {
		rec = &models.JobTracking{JobID: job.ID, Status: models.StatusNotStarted}
	}
	return jobResponse{
		ID:             job.ID,
		Title:          job.Title,
		JobType:        job.JobType,
		EquipmentRef:   job.EquipmentRef,
		DefectRef:      job.DefectRef,
		PlanDate:       job.PlanDate.Format("2006-01-02"),
		Shift:          job.Shift,
		EstimatedHours: job.EstimatedHours,
		Priority:       job.Priority,
		Published:      job.Published,
		WorkNotes:      job.WorkNotes,
		Assignments:    job.Assignments,
		Tracking:       trackingView(rec, now),
	}
}

func (s *Server) handleJobList(c *gin.Context) {
	q := s.db.Preload("Assignments").Preload("Tracking")
	if d := c.Query("date"); d != "" {
		date, ok := parseDate(d)
		if !ok {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		q = q.Where("plan_date = ?", models.DateOnly(date))
	}
	if shift := c.Query("shift"); shift != "" {
		q = q.Where("shift = ?", shift)
	}

	var jobs []models.WorkPlanJob
	if err := q.Order("priority ASC, created_at ASC").Find(&jobs).Error; err != nil {
		fail(c, err)
		return
	}

	now := s.clock.Now()
	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, s.jobView(&jobs[i], now))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out, "count": len(out)})
}

func (s *Server) handleJobDetail(c *gin.Context) {
	var job models.WorkPlanJob
	err := s.db.Preload("Assignments").Preload("Tracking").
		Where("id = ?", c.Param("id")).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, tracking.ErrNotFound)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	pauses, err := s.machine.PauseHistory(job.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ratings, err := s.ratings.ForJob(job.ID)
	if err != nil {
		fail(c, err)
		return
	}
	links, err := s.carry.History(job.ID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job":        s.jobView(&job, s.clock.Now()),
		"pauses":     pauses,
		"ratings":    ratings,
		"carry_overs": links,
	})
}
