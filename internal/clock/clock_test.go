package clock

import (
	"testing"
	"time"
)

func TestSystem_Now(t *testing.T) {
	before := time.Now()
	got := System{}.Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Errorf("System.Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestFake_SetAndAdvance(t *testing.T) {
	t0 := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	fc := NewFake(t0)

	if !fc.Now().Equal(t0) {
		t.Errorf("Now() = %v, want %v", fc.Now(), t0)
	}

	fc.Advance(30 * time.Minute)
	if !fc.Now().Equal(t0.Add(30 * time.Minute)) {
		t.Errorf("Now() after advance = %v, want %v", fc.Now(), t0.Add(30*time.Minute))
	}

	t1 := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
	fc.Set(t1)
	if !fc.Now().Equal(t1) {
		t.Errorf("Now() after set = %v, want %v", fc.Now(), t1)
	}
}
