// Package sweep closes out a working day: every job still not_started or
// incomplete is carried over to the next day. Scheduled via a cron
// expression, typically early the following morning.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/worktrack/internal/carryover"
	"github.com/zulandar/worktrack/internal/clock"
	"github.com/zulandar/worktrack/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSpec checks a 5-field cron expression.
func ValidateSpec(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("sweep: cron expression %q: %w", expr, err)
	}
	return nil
}

// Result summarizes one day-close pass.
type Result struct {
	Date        string `json:"date"`
	Scanned     int    `json:"scanned"`
	CarriedOver int    `json:"carried_over"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
}

// Sweeper carries a day's unfinished jobs forward.
type Sweeper struct {
	db    *gorm.DB
	clock clock.Clock
	carry *carryover.Service
	log   *zap.Logger
}

// New creates a Sweeper.
func New(db *gorm.DB, clk clock.Clock, carry *carryover.Service, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{db: db, clock: clk, carry: carry, log: log}
}

// CloseDay carries over every job on the given date, both shifts, whose
// tracking record is still not_started or incomplete. Jobs already carried
// over are skipped, so the pass is idempotent. Completed and still-running
// jobs are left alone.
func (s *Sweeper) CloseDay(date time.Time) (Result, error) {
	day := models.DateOnly(date)
	res := Result{Date: day.Format("2006-01-02")}

	var jobs []models.WorkPlanJob
	if err := s.db.Preload("Tracking").Where("plan_date = ?", day).Find(&jobs).Error; err != nil {
		return res, fmt.Errorf("sweep: list jobs for %s: %w", res.Date, err)
	}
	res.Scanned = len(jobs)

	for _, job := range jobs {
		status := models.StatusNotStarted
		if job.Tracking != nil {
			status = job.Tracking.Status
		}
		if status != models.StatusNotStarted && status != models.StatusIncomplete {
			res.Skipped++
			continue
		}

		clone, err := s.carry.CarryOver(job.ID)
		switch {
		case err == nil:
			res.CarriedOver++
			s.log.Info("carried job over",
				zap.String("job_id", job.ID),
				zap.String("new_job_id", clone.ID),
				zap.String("status", status))
		case errors.Is(err, carryover.ErrAlreadyCarriedOver):
			res.Skipped++
		default:
			res.Failed++
			s.log.Error("carry-over failed",
				zap.String("job_id", job.ID),
				zap.Error(err))
		}
	}

	s.log.Info("day closed",
		zap.String("date", res.Date),
		zap.Int("scanned", res.Scanned),
		zap.Int("carried_over", res.CarriedOver),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
	return res, nil
}

// Run schedules CloseDay on the cron expression and blocks until ctx is
// cancelled. Each firing closes the previous calendar day, so an early
// morning schedule sweeps the day that just ended.
func (s *Sweeper) Run(ctx context.Context, expr string) error {
	if err := ValidateSpec(expr); err != nil {
		return err
	}

	c := cron.New(cron.WithParser(cronParser))
	_, err := c.AddFunc(expr, func() {
		date := s.clock.Now().AddDate(0, 0, -1)
		if _, err := s.CloseDay(date); err != nil {
			s.log.Error("day close pass failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("sweep: schedule %q: %w", expr, err)
	}

	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}
