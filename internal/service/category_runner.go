package service

import (
	"time"

	"github.com/edulita/tryout-backend/internal/model"
)

// Category Runner: pure deadline math for section timers. The engine never
// pushes expiry to clients; every state-changing call re-validates these
// deadlines and force-ends with a recorded end time before applying the
// requested mutation.

// AttemptDeadline returns the attempt-wide deadline and whether one exists.
// In per_test mode the whole budget is wall clock from started_at; the
// test's scheduling window end caps both modes.
func AttemptDeadline(test *model.Test, attempt *model.ParticipantTest) (time.Time, bool) {
	var deadline time.Time
	has := false

	if test.TimerType == model.TimerPerTest && test.TotalTime > 0 {
		deadline = attempt.StartedAt.Add(time.Duration(test.TotalTime) * time.Minute)
		has = true
	}

	if cap, ok := windowEnd(test); ok {
		if !has || cap.Before(deadline) {
			deadline = cap
			has = true
		}
	}
	return deadline, has
}

// CategoryDeadline returns a section's deadline and whether one exists.
// Only per_category mode gives the section its own budget; in per_test mode
// the section inherits the attempt-wide deadline.
func CategoryDeadline(test *model.Test, attempt *model.ParticipantTest, cat *model.ParticipantQuestionCategory) (time.Time, bool) {
	if test.TimerType == model.TimerPerCategory && cat.TimeLimit > 0 {
		deadline := cat.StartDate.Add(time.Duration(cat.TimeLimit) * time.Minute)
		if cap, ok := windowEnd(test); ok && cap.Before(deadline) {
			deadline = cap
		}
		return deadline, true
	}
	return AttemptDeadline(test, attempt)
}

// Expired reports whether a deadline has passed.
func Expired(now, deadline time.Time, has bool) bool {
	return has && now.After(deadline)
}

// windowEnd resolves the test's scheduling end_date (date-only) to the end
// of that day.
func windowEnd(test *model.Test) (time.Time, bool) {
	if test.EndDate == nil {
		return time.Time{}, false
	}
	d := *test.EndDate
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location()), true
}

// windowOpen reports whether the test accepts new attempts at the given time.
func windowOpen(test *model.Test, now time.Time) bool {
	if test.StartDate != nil {
		d := *test.StartDate
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		if now.Before(start) {
			return false
		}
	}
	if end, ok := windowEnd(test); ok && now.After(end) {
		return false
	}
	return true
}
