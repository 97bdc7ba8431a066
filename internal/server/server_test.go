package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zulandar/worktrack/internal/carryover"
	"github.com/zulandar/worktrack/internal/clock"
	"github.com/zulandar/worktrack/internal/models"
	"github.com/zulandar/worktrack/internal/rating"
	"github.com/zulandar/worktrack/internal/review"
	"github.com/zulandar/worktrack/internal/tracking"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	day = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	t0  = day.Add(8 * time.Hour)
)

type fixture struct {
	db     *gorm.DB
	clock  *clock.Fake
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
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
		&models.PauseRequest{},
		&models.DailyReview{},
		&models.JobRating{},
		&models.CarryOver{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	fc := clock.NewFake(t0)
	srv, err := New(Opts{
		DB:      db,
		Clock:   fc,
		Machine: tracking.New(db, fc, nil),
		Reviews: review.NewService(db, fc, nil),
		Carry:   carryover.NewService(db, fc),
		Ratings: rating.NewService(db),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{db: db, clock: fc, router: srv.Router()}
}

func (f *fixture) seedJob(t *testing.T, workers ...string) *models.WorkPlanJob {
	t.Helper()
	job := &models.WorkPlanJob{
		ID:       uuid.NewString(),
		Title:    "Swap hydraulic filter",
		JobType:  models.JobTypePreventive,
		PlanDate: day,
		Shift:    models.ShiftDay,
		Priority: 1,
	}
	if err := f.db.Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	for i, w := range workers {
		if err := f.db.Create(&models.JobAssignment{JobID: job.ID, WorkerID: w, Lead: i == 0}).Error; err != nil {
			t.Fatalf("create assignment: %v", err)
		}
	}
	return job
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	job := f.seedJob(t, "w1")
	base := "/api/jobs/" + job.ID

	w := f.do(t, http.MethodPost, base+"/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	if got := decode(t, w); got["status"] != models.StatusInProgress {
		t.Errorf("status = %v, want in_progress", got["status"])
	}

	f.clock.Advance(30 * time.Minute)
	w = f.do(t, http.MethodPost, base+"/pause", map[string]string{
		"reason_category": models.PauseReasonBreak,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("pause status = %d: %s", w.Code, w.Body.String())
	}

	f.clock.Advance(15 * time.Minute)
	w = f.do(t, http.MethodPost, base+"/resume", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resume status = %d: %s", w.Code, w.Body.String())
	}

	f.clock.Set(t0.Add(2*time.Hour + 15*time.Minute))
	w = f.do(t, http.MethodPost, base+"/complete", map[string]string{
		"work_notes": "filter swapped, no leaks",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d: %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["actual_hours"] != 2.0 {
		t.Errorf("actual_hours = %v, want 2", got["actual_hours"])
	}
	if got["total_paused_minutes"] != 15.0 {
		t.Errorf("total_paused_minutes = %v, want 15", got["total_paused_minutes"])
	}
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t)
	job := f.seedJob(t, "w1")
	base := "/api/jobs/" + job.ID

	// Unknown job: 404.
	if w := f.do(t, http.MethodPost, "/api/jobs/nope/start", nil); w.Code != http.StatusNotFound {
		t.Errorf("start unknown job status = %d, want 404", w.Code)
	}

	// Pause before start: 409.
	w := f.do(t, http.MethodPost, base+"/pause", map[string]string{"reason_category": models.PauseReasonBreak})
	if w.Code != http.StatusConflict {
		t.Errorf("pause from not_started status = %d, want 409", w.Code)
	}

	f.do(t, http.MethodPost, base+"/start", nil)

	// Bad reason: 422.
	w = f.do(t, http.MethodPost, base+"/pause", map[string]string{"reason_category": "lunch"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("pause with bad reason status = %d, want 422", w.Code)
	}

	// Malformed body: 400.
	req := httptest.NewRequest(http.MethodPost, base+"/pause", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("pause with bad body status = %d, want 400", rec.Code)
	}

	// Double start: 409.
	if w := f.do(t, http.MethodPost, base+"/start", nil); w.Code != http.StatusConflict {
		t.Errorf("double start status = %d, want 409", w.Code)
	}
}

func TestPauseApprovalOverHTTP(t *testing.T) {
	f := newFixture(t)
	job := f.seedJob(t, "w1")
	base := "/api/jobs/" + job.ID

	f.do(t, http.MethodPost, base+"/start", nil)
	f.clock.Advance(10 * time.Minute)
	w := f.do(t, http.MethodPost, base+"/pause", map[string]string{
		"reason_category": models.PauseReasonUrgent,
		"reason_details":  "kiln alarm",
	})
	pr := decode(t, w)["pause_request"].(map[string]any)
	reqID := pr["ID"].(string)

	w = f.do(t, http.MethodGet, "/api/pauses/pending", nil)
	if got := decode(t, w); got["count"] != 1.0 {
		t.Errorf("pending count = %v, want 1", got["count"])
	}

	w = f.do(t, http.MethodPost, "/api/pauses/"+reqID+"/approve", map[string]string{"resolved_by": "supervisor-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d: %s", w.Code, w.Body.String())
	}

	// Second decision: 409.
	w = f.do(t, http.MethodPost, "/api/pauses/"+reqID+"/reject", map[string]string{"resolved_by": "supervisor-2"})
	if w.Code != http.StatusConflict {
		t.Errorf("re-resolve status = %d, want 409", w.Code)
	}

	// Unknown request: 404.
	w = f.do(t, http.MethodPost, "/api/pauses/nope/approve", map[string]string{"resolved_by": "s"})
	if w.Code != http.StatusNotFound {
		t.Errorf("approve unknown status = %d, want 404", w.Code)
	}
}

func TestReviewOverHTTP(t *testing.T) {
	f := newFixture(t)
	job := f.seedJob(t, "w1")
	base := "/api/jobs/" + job.ID

	f.do(t, http.MethodPost, base+"/start", nil)
	f.clock.Advance(10 * time.Minute)
	w := f.do(t, http.MethodPost, base+"/pause", map[string]string{"reason_category": models.PauseReasonBreak})
	reqID := decode(t, w)["pause_request"].(map[string]any)["ID"].(string)
	f.clock.Advance(5 * time.Minute)
	f.do(t, http.MethodPost, base+"/resume", nil)
	f.do(t, http.MethodPost, base+"/complete", nil)

	dateQ := fmt.Sprintf("/api/reviews?date=%s&shift=day", day.Format("2006-01-02"))
	w = f.do(t, http.MethodGet, dateQ, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("review get status = %d: %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["can_submit"] != false || got["has_unresolved_pauses"] != true {
		t.Errorf("gate = %v/%v, want closed", got["can_submit"], got["has_unresolved_pauses"])
	}

	submit := map[string]string{
		"date": day.Format("2006-01-02"), "shift": "day", "submitted_by": "supervisor-1",
	}
	if w := f.do(t, http.MethodPost, "/api/reviews/submit", submit); w.Code != http.StatusConflict {
		t.Errorf("gated submit status = %d, want 409", w.Code)
	}

	f.do(t, http.MethodPost, "/api/pauses/"+reqID+"/approve", map[string]string{"resolved_by": "supervisor-1"})

	w = f.do(t, http.MethodPost, "/api/reviews/submit", submit)
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", w.Code, w.Body.String())
	}
	got = decode(t, w)
	if got["status"] != models.ReviewSubmitted || got["completion_rate"] != 100.0 {
		t.Errorf("submitted review = %v", got)
	}

	if w := f.do(t, http.MethodPost, "/api/reviews/submit", submit); w.Code != http.StatusConflict {
		t.Errorf("resubmit status = %d, want 409", w.Code)
	}

	// Bad date: 400. Bad shift: 422.
	if w := f.do(t, http.MethodGet, "/api/reviews?date=junk&shift=day", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", w.Code)
	}
	q := fmt.Sprintf("/api/reviews?date=%s&shift=swing", day.Format("2006-01-02"))
	if w := f.do(t, http.MethodGet, q, nil); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad shift status = %d, want 422", w.Code)
	}
}

func TestCarryOverOverHTTP(t *testing.T) {
	f := newFixture(t)
	job := f.seedJob(t, "w1")
	base := "/api/jobs/" + job.ID

	f.do(t, http.MethodPost, base+"/start", nil)
	f.do(t, http.MethodPost, base+"/incomplete", map[string]string{
		"reason_category": models.PauseReasonMaterials,
	})

	w := f.do(t, http.MethodPost, base+"/carryover", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("carryover status = %d: %s", w.Code, w.Body.String())
	}

	if w := f.do(t, http.MethodPost, base+"/carryover", nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate carryover status = %d, want 409", w.Code)
	}
}

func TestRatingOverHTTP(t *testing.T) {
	f := newFixture(t)
	job := f.seedJob(t, "w1")
	base := "/api/jobs/" + job.ID

	// Not completed yet: 409.
	w := f.do(t, http.MethodPut, base+"/ratings/w1", map[string]any{"cleaning_rating": 1})
	if w.Code != http.StatusConflict {
		t.Errorf("rate before complete status = %d, want 409", w.Code)
	}

	f.do(t, http.MethodPost, base+"/start", nil)
	f.clock.Advance(time.Hour)
	f.do(t, http.MethodPost, base+"/complete", nil)

	// Unassigned worker: 422.
	w = f.do(t, http.MethodPut, base+"/ratings/w9", map[string]any{"cleaning_rating": 1})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("rate unassigned status = %d, want 422", w.Code)
	}

	// QC 2 without reason: 422.
	w = f.do(t, http.MethodPut, base+"/ratings/w1", map[string]any{"qc_rating": 2, "cleaning_rating": 1})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("qc without reason status = %d, want 422", w.Code)
	}

	w = f.do(t, http.MethodPut, base+"/ratings/w1", map[string]any{
		"qc_rating": 2, "qc_reason": "rework on flange torque", "cleaning_rating": 2, "rated_by": "engineer-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("rate status = %d: %s", w.Code, w.Body.String())
	}
}

func TestJobListAndDetail(t *testing.T) {
	f := newFixture(t)
	job := f.seedJob(t, "w1", "w2")
	f.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/start", nil)
	f.clock.Advance(45 * time.Minute)

	q := fmt.Sprintf("/api/jobs?date=%s&shift=day", day.Format("2006-01-02"))
	w := f.do(t, http.MethodGet, q, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["count"] != 1.0 {
		t.Fatalf("count = %v, want 1", got["count"])
	}
	item := got["jobs"].([]any)[0].(map[string]any)
	timer := item["tracking"].(map[string]any)["timer"].(map[string]any)
	if timer["is_running"] != true || timer["elapsed_seconds"] != float64(45*60) {
		t.Errorf("timer = %v, want running at 2700s", timer)
	}

	w = f.do(t, http.MethodGet, "/api/jobs/"+job.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detail status = %d: %s", w.Code, w.Body.String())
	}
	detail := decode(t, w)
	jobView := detail["job"].(map[string]any)
	if len(jobView["assignments"].([]any)) != 2 {
		t.Errorf("assignments = %v, want 2", jobView["assignments"])
	}

	if w := f.do(t, http.MethodGet, "/api/jobs/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("detail unknown status = %d, want 404", w.Code)
	}
}

func TestJobList_UntrackedJobProjectsNotStarted(t *testing.T) {
	f := newFixture(t)
	f.seedJob(t, "w1")

	w := f.do(t, http.MethodGet, "/api/jobs", nil)
	got := decode(t, w)
	item := got["jobs"].([]any)[0].(map[string]any)
	tr := item["tracking"].(map[string]any)
	if tr["status"] != models.StatusNotStarted {
		t.Errorf("status = %v, want not_started", tr["status"])
	}
}
