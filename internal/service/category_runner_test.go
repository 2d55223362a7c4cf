package service

import (
	"testing"
	"time"

	"github.com/edulita/tryout-backend/internal/model"
)

func tp(t time.Time) *time.Time { return &t }

func TestAttemptDeadlinePerTest(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	test := &model.Test{TimerType: model.TimerPerTest, TotalTime: 90}
	attempt := &model.ParticipantTest{StartedAt: started}

	deadline, has := AttemptDeadline(test, attempt)
	if !has {
		t.Fatal("per_test with total_time must have a deadline")
	}
	if want := started.Add(90 * time.Minute); !deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v (wall clock from started_at)", deadline, want)
	}
}

func TestAttemptDeadlinePerCategoryModeHasNoSharedBudget(t *testing.T) {
	test := &model.Test{TimerType: model.TimerPerCategory, TotalTime: 90}
	attempt := &model.ParticipantTest{StartedAt: time.Now()}

	if _, has := AttemptDeadline(test, attempt); has {
		t.Fatal("per_category mode must not derive an attempt-wide timer deadline")
	}
}

func TestAttemptDeadlineCappedByScheduleWindow(t *testing.T) {
	started := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	test := &model.Test{
		TimerType: model.TimerPerTest,
		TotalTime: 240,
		EndDate:   tp(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
	}
	attempt := &model.ParticipantTest{StartedAt: started}

	deadline, has := AttemptDeadline(test, attempt)
	if !has {
		t.Fatal("want deadline")
	}
	if want := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC); !deadline.Equal(want) {
		t.Fatalf("deadline = %v, want window end %v", deadline, want)
	}
}

func TestCategoryDeadlinePerCategory(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	test := &model.Test{TimerType: model.TimerPerCategory}
	attempt := &model.ParticipantTest{StartedAt: started.Add(-time.Hour)}
	cat := &model.ParticipantQuestionCategory{StartDate: started, TimeLimit: 30}

	deadline, has := CategoryDeadline(test, attempt, cat)
	if !has {
		t.Fatal("per_category with time_limit must have a deadline")
	}
	if want := started.Add(30 * time.Minute); !deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v (from category start)", deadline, want)
	}
}

func TestCategoryDeadlineInheritsSharedBudget(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	test := &model.Test{TimerType: model.TimerPerTest, TotalTime: 60}
	attempt := &model.ParticipantTest{StartedAt: started}
	cat := &model.ParticipantQuestionCategory{StartDate: started.Add(20 * time.Minute), TimeLimit: 30}

	deadline, has := CategoryDeadline(test, attempt, cat)
	if !has {
		t.Fatal("want inherited deadline")
	}
	// In per_test mode the section's own time_limit is ignored.
	if want := started.Add(60 * time.Minute); !deadline.Equal(want) {
		t.Fatalf("deadline = %v, want attempt-wide %v", deadline, want)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	if Expired(now, now.Add(time.Minute), true) {
		t.Error("future deadline must not be expired")
	}
	if !Expired(now, now.Add(-time.Second), true) {
		t.Error("past deadline must be expired")
	}
	if Expired(now, time.Time{}, false) {
		t.Error("absent deadline never expires")
	}
}

func TestWindowOpen(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	open := &model.Test{
		StartDate: tp(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:   tp(time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)),
	}
	if !windowOpen(open, now) {
		t.Error("inside window must be open")
	}

	upcoming := &model.Test{StartDate: tp(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))}
	if windowOpen(upcoming, now) {
		t.Error("before start_date must be closed")
	}

	past := &model.Test{EndDate: tp(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))}
	if windowOpen(past, now) {
		t.Error("after end_date must be closed")
	}

	unbounded := &model.Test{}
	if !windowOpen(unbounded, now) {
		t.Error("no window means always open")
	}
}
