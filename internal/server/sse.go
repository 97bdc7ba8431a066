package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/worktrack/internal/models"
)

// pauseEvent is the SSE payload for a new pending pause request.
type pauseEvent struct {
	RequestID      string `json:"request_id"`
	JobID          string `json:"job_id"`
	JobTitle       string `json:"job_title"`
	ReasonCategory string `json:"reason_category"`
	ReasonDetails  string `json:"reason_details,omitempty"`
	PendingCount   int64  `json:"pending_count"`
}

// handleSSE streams newly raised pause requests to the supervisor UI.
// Polling, not push: the write path stays free of broker concerns and a
// dropped connection loses nothing; the client reconnects and the pending
// list is still queryable.
func (s *Server) handleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	// Only alert on requests raised after the stream opened.
	lastSeen := s.clock.Now()

	ctx := c.Request.Context()
	ticker := time.NewTicker(3 * time.Second)
	heartbeat := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			var reqs []models.PauseRequest
			s.db.Where("resolution = ? AND requested_at > ?", models.ResolutionPending, lastSeen).
				Order("requested_at ASC").Find(&reqs)
			if len(reqs) == 0 {
				continue
			}
			lastSeen = reqs[len(reqs)-1].RequestedAt

			var pending int64
			s.db.Model(&models.PauseRequest{}).
				Where("resolution = ?", models.ResolutionPending).Count(&pending)

			for _, req := range reqs {
				var job models.WorkPlanJob
				s.db.Where("id = ?", req.JobID).First(&job)
				writeSSE(c.Writer, "pause_requested", pauseEvent{
					RequestID:      req.ID,
					JobID:          req.JobID,
					JobTitle:       job.Title,
					ReasonCategory: req.ReasonCategory,
					ReasonDetails:  req.ReasonDetails,
					PendingCount:   pending,
				})
			}
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
