// Package notify fans tracking events out to chat platforms. Delivery is
// best-effort: failures are logged and never propagate back into the state
// machine or the review gate.
package notify

import (
	"fmt"

	"github.com/zulandar/worktrack/internal/models"
	"go.uber.org/zap"
)

// Event colors.
const (
	colorWarn = "#e8a317"
	colorGood = "#36a64f"
)

// Field is one labeled value inside an Event.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Event is a platform-neutral notification. Adapters translate it to
// attachments (Slack) or embeds (Discord).
type Event struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Sender delivers one event to one platform.
type Sender interface {
	Send(evt Event) error
}

// Hub formats domain events and fans them out to all configured senders.
// It satisfies the Notifier interfaces of the tracking and review packages.
type Hub struct {
	log     *zap.Logger
	senders []Sender
}

// NewHub creates a Hub. A Hub with no senders is a valid no-op.
func NewHub(log *zap.Logger, senders ...Sender) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{log: log, senders: senders}
}

// PauseRequested announces a new pending pause request to supervisors.
func (h *Hub) PauseRequested(job *models.WorkPlanJob, req *models.PauseRequest) {
	evt := Event{
		Title: fmt.Sprintf("Pause requested: %s", job.Title),
		Body:  req.ReasonDetails,
		Color: colorWarn,
		Fields: []Field{
			{Name: "Reason", Value: req.ReasonCategory, Short: true},
			{Name: "Shift", Value: job.Shift, Short: true},
			{Name: "Job", Value: job.ID},
		},
	}
	h.send("pause_requested", evt)
}

// ReviewSubmitted announces a submitted daily review.
func (h *Hub) ReviewSubmitted(rev *models.DailyReview) {
	evt := Event{
		Title: fmt.Sprintf("Daily review submitted: %s %s",
			rev.ReviewDate.Format("2006-01-02"), rev.Shift),
		Color: colorGood,
		Fields: []Field{
			{Name: "Completed", Value: fmt.Sprintf("%d/%d", rev.ApprovedJobs, rev.TotalJobs), Short: true},
			{Name: "Completion rate", Value: fmt.Sprintf("%d%%", rev.CompletionRate), Short: true},
			{Name: "Submitted by", Value: rev.SubmittedBy, Short: true},
		},
	}
	h.send("review_submitted", evt)
}

func (h *Hub) send(kind string, evt Event) {
	for _, s := range h.senders {
		if err := s.Send(evt); err != nil {
			h.log.Warn("notification delivery failed",
				zap.String("event", kind),
				zap.String("title", evt.Title),
				zap.Error(err))
		}
	}
}
