package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/worktrack/internal/carryover"
	"github.com/zulandar/worktrack/internal/rating"
	"github.com/zulandar/worktrack/internal/review"
	"github.com/zulandar/worktrack/internal/tracking"
)

// registerRoutes sets up all API routes on the Gin router.
func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.GET("/jobs", s.handleJobList)
	api.GET("/jobs/:id", s.handleJobDetail)
	api.POST("/jobs/:id/start", s.handleStart)
	api.POST("/jobs/:id/pause", s.handlePause)
	api.POST("/jobs/:id/resume", s.handleResume)
	api.POST("/jobs/:id/complete", s.handleComplete)
	api.POST("/jobs/:id/incomplete", s.handleMarkIncomplete)
	api.POST("/jobs/:id/carryover", s.handleCarryOver)
	api.PUT("/jobs/:id/ratings/:worker", s.handleRate)

	api.GET("/pauses/pending", s.handlePendingPauses)
	api.POST("/pauses/:id/approve", s.handleResolvePause("approved"))
	api.POST("/pauses/:id/reject", s.handleResolvePause("rejected"))

	api.GET("/reviews", s.handleReviewGet)
	api.POST("/reviews/submit", s.handleReviewSubmit)

	api.GET("/events", s.handleSSE)
}

// fail maps a service error onto an HTTP status and JSON body.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracking.ErrNotFound),
		errors.Is(err, carryover.ErrNotFound),
		errors.Is(err, rating.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tracking.ErrInvalidTransition),
		errors.Is(err, tracking.ErrAlreadyResolved),
		errors.Is(err, review.ErrAlreadySubmitted),
		errors.Is(err, review.ErrUnresolvedPauses),
		errors.Is(err, carryover.ErrInvalidState),
		errors.Is(err, carryover.ErrAlreadyCarriedOver),
		errors.Is(err, rating.ErrNotCompleted):
		status = http.StatusConflict
	case errors.Is(err, tracking.ErrInvalidReason),
		errors.Is(err, review.ErrInvalidShift),
		errors.Is(err, rating.ErrNotAssigned),
		errors.Is(err, rating.ErrOutOfRange),
		errors.Is(err, rating.ErrReasonRequired):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// parseDate reads a YYYY-MM-DD query or body value.
func parseDate(value string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", value)
	return t, err == nil
}

func (s *Server) handleStart(c *gin.Context) {
	rec, err := s.machine.Start(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trackingView(rec, s.clock.Now()))
}

type pauseRequest struct {
	ReasonCategory string `json:"reason_category"`
	ReasonDetails  string `json:"reason_details"`
}

func (s *Server) handlePause(c *gin.Context) {
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	rec, pr, err := s.machine.Pause(c.Param("id"), req.ReasonCategory, req.ReasonDetails)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tracking":      trackingView(rec, s.clock.Now()),
		"pause_request": pr,
	})
}

func (s *Server) handleResume(c *gin.Context) {
	rec, err := s.machine.Resume(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trackingView(rec, s.clock.Now()))
}

type completeRequest struct {
	WorkNotes string `json:"work_notes"`
}

func (s *Server) handleComplete(c *gin.Context) {
	var req completeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	rec, err := s.machine.Complete(c.Param("id"), req.WorkNotes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trackingView(rec, s.clock.Now()))
}

type incompleteRequest struct {
	ReasonCategory string `json:"reason_category"`
	ReasonDetails  string `json:"reason_details"`
}

func (s *Server) handleMarkIncomplete(c *gin.Context) {
	var req incompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	rec, err := s.machine.MarkIncomplete(c.Param("id"), req.ReasonCategory, req.ReasonDetails)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trackingView(rec, s.clock.Now()))
}

type resolveRequest struct {
	ResolvedBy string `json:"resolved_by"`
}

func (s *Server) handleResolvePause(decision string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		pr, err := s.machine.ResolvePause(c.Param("id"), decision, req.ResolvedBy)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, pr)
	}
}

func (s *Server) handlePendingPauses(c *gin.Context) {
	reqs, err := s.machine.PendingPauses()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": reqs, "count": len(reqs)})
}

func (s *Server) handleReviewGet(c *gin.Context) {
	date, ok := parseDate(c.Query("date"))
	if !ok {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}
	rev, err := s.reviews.Refresh(date, c.Query("shift"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviewView(rev))
}

type submitRequest struct {
	Date        string `json:"date"`
	Shift       string `json:"shift"`
	SubmittedBy string `json:"submitted_by"`
}

func (s *Server) handleReviewSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}
	rev, err := s.reviews.Submit(date, req.Shift, req.SubmittedBy)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviewView(rev))
}

func (s *Server) handleCarryOver(c *gin.Context) {
	clone, err := s.carry.CarryOver(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, clone)
}

func (s *Server) handleRate(c *gin.Context) {
	var in rating.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	r, err := s.ratings.Rate(c.Param("id"), c.Param("worker"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
