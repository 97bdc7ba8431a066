package tracking

import (
	"time"

	"github.com/zulandar/worktrack/internal/models"
)

// Timer is the read-side projection clients poll to paint elapsed time.
// The core never owns a ticking clock; callers re-derive this on each tick.
type Timer struct {
	IsRunning      bool  `json:"is_running"`
	IsPaused       bool  `json:"is_paused"`
	ElapsedSeconds int64 `json:"elapsed_seconds"`
	PausedSeconds  int64 `json:"paused_seconds"`
}

// Project derives the timer view of a tracking record at now. Elapsed time
// excludes all paused time, including a pause interval still open at now.
// For a completed job the projection is frozen at completed_at.
func Project(rec *models.JobTracking, now time.Time) Timer {
	t := Timer{
		IsRunning: rec.Status == models.StatusInProgress,
		IsPaused:  rec.Status == models.StatusPaused,
	}
	if rec.StartedAt == nil {
		return t
	}

	end := now
	if rec.Status == models.StatusCompleted && rec.CompletedAt != nil {
		end = *rec.CompletedAt
	}

	paused := int64(rec.TotalPausedMinutes) * 60
	if rec.Status == models.StatusPaused && rec.PausedAt != nil && now.After(*rec.PausedAt) {
		paused += int64(now.Sub(*rec.PausedAt).Seconds())
	}

	elapsed := int64(end.Sub(*rec.StartedAt).Seconds()) - paused
	if elapsed < 0 {
		elapsed = 0
	}

	t.ElapsedSeconds = elapsed
	t.PausedSeconds = paused
	return t
}
