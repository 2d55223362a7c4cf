package model

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantTest is one participant's attempt at a test.
// is_ongoing and is_completed are mutually exclusive; at most one ongoing
// attempt exists per (user, test), enforced by a partial unique index.
type ParticipantTest struct {
	ID          uuid.UUID  `json:"id"`
	TestID      uuid.UUID  `json:"test_id"`
	UserID      int        `json:"user_id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Grade       *float64   `json:"grade,omitempty"`
	IsOngoing   bool       `json:"is_ongoing"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ParticipantQuestionCategory is one scored section within an attempt.
// Terminal once end_date is set; immutable thereafter.
type ParticipantQuestionCategory struct {
	ID                 uuid.UUID  `json:"id"`
	ParticipantTestID  uuid.UUID  `json:"participant_test_id"`
	QuestionCategoryID uuid.UUID  `json:"question_category_id"`
	Name               string     `json:"name"`
	Position           int        `json:"position"`
	TimeLimit          int        `json:"time_limit"` // minutes, copied from the definition
	StartDate          time.Time  `json:"start_date"`
	EndDate            *time.Time `json:"end_date,omitempty"`
}

// Ended reports whether the category is terminal.
func (c *ParticipantQuestionCategory) Ended() bool {
	return c.EndDate != nil
}

// GenerateTestRequest is the payload for generating (or resuming) an attempt.
type GenerateTestRequest struct {
	TestID string `json:"test_id" binding:"required,uuid"`
	Code   string `json:"code" binding:"omitempty,max=20"`
}

// LeaderboardJob is queued when an attempt completes so the leaderboard
// worker refreshes the test's ranking ZSET.
type LeaderboardJob struct {
	TestID    string  `json:"test_id"`
	AttemptID string  `json:"attempt_id"`
	UserID    int     `json:"user_id"`
	Grade     float64 `json:"grade"`
	EndedAt   string  `json:"ended_at,omitempty"`
}

// ContinueTestData is the result of continue/regenerate operations:
// the attempt plus its currently active category (nil once everything ended).
type ContinueTestData struct {
	ParticipantTest *ParticipantTest             `json:"participant_test"`
	ActiveCategory  *ParticipantQuestionCategory `json:"active_category,omitempty"`
	Questions       []ParticipantQuestion        `json:"questions,omitempty"`
}
