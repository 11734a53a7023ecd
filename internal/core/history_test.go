package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func storedRun(profile string, at time.Time, total, correct int) *Run {
	return &Run{
		ID:        uuid.New(),
		Profile:   profile,
		CreatedAt: at,
		Report:    &Report{Profile: profile, Summary: Summary{Total: total, Correct: correct}},
	}
}

func TestMemoryStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(10)

	run := storedRun("standard", time.Now(), 5, 3)
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.ID != run.ID || got.Report.Summary.Total != 5 {
		t.Errorf("GetRun() = %+v", got)
	}

	if _, err := s.GetRun(ctx, uuid.New()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun(unknown) error = %v, want ErrRunNotFound", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(10)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_ = s.SaveRun(ctx, storedRun("p", base.Add(time.Duration(i)*time.Hour), 10, i))
	}

	list, err := s.ListRuns(ctx, 3)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].Correct != 3 || list[2].Correct != 1 {
		t.Errorf("order = %d, %d, %d, want newest first", list[0].Correct, list[1].Correct, list[2].Correct)
	}
	if list[0].Issues != 7 {
		t.Errorf("Issues = %d, want 7", list[0].Issues)
	}
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	first := storedRun("p", time.Now(), 1, 1)
	_ = s.SaveRun(ctx, first)
	_ = s.SaveRun(ctx, storedRun("p", time.Now(), 1, 1))
	_ = s.SaveRun(ctx, storedRun("p", time.Now(), 1, 1))

	if _, err := s.GetRun(ctx, first.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("oldest run should be evicted, got err = %v", err)
	}
	list, _ := s.ListRuns(ctx, 0)
	if len(list) != 2 {
		t.Errorf("len = %d, want 2", len(list))
	}
}

func TestMemoryStore_Purge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(10)
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	old := storedRun("p", now.AddDate(0, 0, -40), 1, 1)
	recent := storedRun("p", now.AddDate(0, 0, -5), 1, 1)
	_ = s.SaveRun(ctx, old)
	_ = s.SaveRun(ctx, recent)

	purged, err := s.PurgeRuns(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("PurgeRuns() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if _, err := s.GetRun(ctx, old.ID); !errors.Is(err, ErrRunNotFound) {
		t.Error("old run should be purged")
	}
	if _, err := s.GetRun(ctx, recent.ID); err != nil {
		t.Errorf("recent run should survive: %v", err)
	}
}

func TestRunRetentionJob(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(10)
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	_ = s.SaveRun(ctx, storedRun("p", now.AddDate(0, 0, -10), 1, 1))
	_ = s.SaveRun(ctx, storedRun("p", now.AddDate(0, 0, -2), 1, 1))

	if n := runRetentionJob(ctx, s, 7, now); n != 1 {
		t.Errorf("runRetentionJob() purged %d, want 1", n)
	}
}

func TestStartRetentionScheduler_InvalidSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := StartRetentionScheduler(ctx, NewMemoryStore(1), RetentionConfig{Schedule: "every tuesday"})
	if err == nil {
		t.Error("StartRetentionScheduler() should reject an invalid schedule")
	}
}

func TestStartRetentionScheduler_Stops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	c, err := StartRetentionScheduler(ctx, NewMemoryStore(1), RetentionConfig{})
	if err != nil {
		t.Fatalf("StartRetentionScheduler() error = %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Errorf("Entries() = %d, want 1", len(c.Entries()))
	}
	cancel()
}
