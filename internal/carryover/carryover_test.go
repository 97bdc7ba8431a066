package carryover

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/worktrack/internal/clock"
	"github.com/zulandar/worktrack/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.WorkPlanJob{},
		&models.JobAssignment{},
		&models.JobTracking{},
		&models.CarryOver{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

var (
	day = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	t0  = day.Add(18 * time.Hour)
)

func seedJob(t *testing.T, db *gorm.DB, status string, workers ...string) *models.WorkPlanJob {
	t.Helper()
	job := &models.WorkPlanJob{
		ID:             uuid.NewString(),
		Title:          "Replace belt on crusher feed",
		JobType:        models.JobTypeDefect,
		EquipmentRef:   "CR-02",
		DefectRef:      "D-1183",
		PlanDate:       day,
		Shift:          models.ShiftDay,
		EstimatedHours: 3.5,
		Priority:       1,
		Published:      true,
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	for i, w := range workers {
		if err := db.Create(&models.JobAssignment{JobID: job.ID, WorkerID: w, Lead: i == 0}).Error; err != nil {
			t.Fatalf("create assignment: %v", err)
		}
	}
	if status != "" {
		rec := models.JobTracking{JobID: job.ID, Status: status}
		if status == models.StatusIncomplete {
			rec.IncompleteReason = models.PauseReasonMaterials
		}
		if err := db.Create(&rec).Error; err != nil {
			t.Fatalf("create tracking: %v", err)
		}
	}
	return job
}

func TestCarryOver_Incomplete(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, clock.NewFake(t0))
	orig := seedJob(t, db, models.StatusIncomplete, "w1", "w2")

	clone, err := svc.CarryOver(orig.ID)
	if err != nil {
		t.Fatalf("CarryOver: %v", err)
	}
	if clone.ID == orig.ID {
		t.Fatal("clone reuses original ID")
	}
	if !clone.PlanDate.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("plan_date = %v, want next day", clone.PlanDate)
	}
	if clone.Title != orig.Title || clone.JobType != orig.JobType ||
		clone.EquipmentRef != orig.EquipmentRef || clone.DefectRef != orig.DefectRef ||
		clone.EstimatedHours != orig.EstimatedHours || clone.Priority != orig.Priority ||
		clone.Shift != orig.Shift {
		t.Errorf("clone metadata differs from original: %+v", clone)
	}

	// Assignment list copied, lead preserved.
	var assignments []models.JobAssignment
	db.Where("job_id = ?", clone.ID).Order("worker_id").Find(&assignments)
	if len(assignments) != 2 {
		t.Fatalf("clone assignments = %d, want 2", len(assignments))
	}
	if assignments[0].WorkerID != "w1" || !assignments[0].Lead {
		t.Errorf("lead assignment = %+v, want w1 lead", assignments[0])
	}
	if assignments[1].WorkerID != "w2" || assignments[1].Lead {
		t.Errorf("second assignment = %+v, want w2 non-lead", assignments[1])
	}

	// Fresh tracking record.
	var rec models.JobTracking
	if err := db.Where("job_id = ?", clone.ID).First(&rec).Error; err != nil {
		t.Fatalf("load clone tracking: %v", err)
	}
	if rec.Status != models.StatusNotStarted {
		t.Errorf("clone status = %q, want not_started", rec.Status)
	}

	// Lineage link.
	var link models.CarryOver
	if err := db.Where("original_job_id = ?", orig.ID).First(&link).Error; err != nil {
		t.Fatalf("load link: %v", err)
	}
	if link.NewJobID != clone.ID {
		t.Errorf("link new_job_id = %q, want %q", link.NewJobID, clone.ID)
	}
	if !link.CarriedOn.Equal(day) {
		t.Errorf("carried_on = %v, want %v", link.CarriedOn, day)
	}
	if link.Reason != models.PauseReasonMaterials {
		t.Errorf("link reason = %q, want incomplete reason", link.Reason)
	}
}

func TestCarryOver_NotStarted(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, clock.NewFake(t0))

	// Explicit not_started record and a job with no record at all both carry.
	explicit := seedJob(t, db, models.StatusNotStarted, "w1")
	lazy := seedJob(t, db, "", "w1")

	for _, job := range []*models.WorkPlanJob{explicit, lazy} {
		clone, err := svc.CarryOver(job.ID)
		if err != nil {
			t.Fatalf("CarryOver(%s): %v", job.ID, err)
		}
		var link models.CarryOver
		if err := db.Where("original_job_id = ?", job.ID).First(&link).Error; err != nil {
			t.Fatalf("load link: %v", err)
		}
		if link.Reason != "not_started" {
			t.Errorf("link reason = %q, want not_started", link.Reason)
		}
		if clone.PlanDate.Equal(job.PlanDate) {
			t.Error("clone scheduled on the same day as original")
		}
	}
}

func TestCarryOver_InvalidStates(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, clock.NewFake(t0))

	for _, status := range []string{
		models.StatusCompleted,
		models.StatusInProgress,
		models.StatusPaused,
	} {
		job := seedJob(t, db, status, "w1")
		_, err := svc.CarryOver(job.ID)
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("CarryOver from %s err = %v, want ErrInvalidState", status, err)
		}
	}
}

func TestCarryOver_Twice(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, clock.NewFake(t0))
	orig := seedJob(t, db, models.StatusIncomplete, "w1")

	if _, err := svc.CarryOver(orig.ID); err != nil {
		t.Fatalf("CarryOver: %v", err)
	}
	_, err := svc.CarryOver(orig.ID)
	if !errors.Is(err, ErrAlreadyCarriedOver) {
		t.Errorf("second CarryOver err = %v, want ErrAlreadyCarriedOver", err)
	}

	// Exactly one clone and one link.
	var jobs, links int64
	db.Model(&models.WorkPlanJob{}).Count(&jobs)
	db.Model(&models.CarryOver{}).Count(&links)
	if jobs != 2 || links != 1 {
		t.Errorf("jobs = %d, links = %d after refused duplicate, want 2 and 1", jobs, links)
	}
}

func TestCarryOver_UnknownJob(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, clock.NewFake(t0))
	_, err := svc.CarryOver("no-such-job")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCarryOver_ChainAcrossDays(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, clock.NewFake(t0))
	orig := seedJob(t, db, models.StatusIncomplete, "w1")

	first, err := svc.CarryOver(orig.ID)
	if err != nil {
		t.Fatalf("CarryOver: %v", err)
	}

	// The clone goes unfinished the next day and carries over again.
	db.Model(&models.JobTracking{}).Where("job_id = ?", first.ID).
		Update("status", models.StatusIncomplete)
	second, err := svc.CarryOver(first.ID)
	if err != nil {
		t.Fatalf("CarryOver (chained): %v", err)
	}
	if !second.PlanDate.Equal(day.AddDate(0, 0, 2)) {
		t.Errorf("chained plan_date = %v, want day+2", second.PlanDate)
	}

	hist, err := svc.History(first.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Errorf("history links = %d, want 2 (as clone and as original)", len(hist))
	}
}
