package model

import (
	"time"

	"github.com/google/uuid"
)

// TimerType selects how a test's time budget is enforced.
type TimerType string

const (
	// TimerPerTest shares one wall-clock budget across the whole attempt,
	// counted from the attempt's started_at.
	TimerPerTest TimerType = "per_test"
	// TimerPerCategory gives each question category its own budget, counted
	// from the category's start_date.
	TimerPerCategory TimerType = "per_category"
)

// ScoreType selects the grading model for a test.
type ScoreType string

const (
	ScoreDefault ScoreType = "default"
	ScoreIRT     ScoreType = "irt"
)

// Test is a scored assessment definition (tryout).
type Test struct {
	ID               uuid.UUID  `json:"id"`
	SchoolID         int        `json:"school_id"`
	Title            string     `json:"title"`
	SubTitle         string     `json:"sub_title,omitempty"`
	Slug             string     `json:"slug"`
	Description      string     `json:"description,omitempty"`
	TimerType        TimerType  `json:"timer_type"`
	ScoreType        ScoreType  `json:"score_type"`
	TotalTime        int        `json:"total_time"` // minutes, per_test budget
	PassGrade        float64    `json:"pass_grade"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Code             string     `json:"code,omitempty"` // access code
	MaxAttempts      int        `json:"max_attempts"`   // 0 = unlimited
	AllowConcurrent  bool       `json:"allow_concurrent"`
	IsGraded         bool       `json:"is_graded"`
	IsExplanationReleased bool  `json:"is_explanation_released"`
	SupervisorID     *int       `json:"supervisor_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// QuestionCategory is one scored section definition of a test.
type QuestionCategory struct {
	ID        uuid.UUID `json:"id"`
	TestID    uuid.UUID `json:"test_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	TimeLimit int       `json:"time_limit"` // minutes, per_category budget; 0 = none
}

// CreateTestRequest is the payload for creating a test definition.
type CreateTestRequest struct {
	SchoolID         int     `json:"school_id" binding:"required"`
	Title            string  `json:"title" binding:"required,min=3,max=255"`
	SubTitle         string  `json:"sub_title" binding:"omitempty,max=255"`
	Slug             string  `json:"slug" binding:"required,min=3,max=255"`
	Description      string  `json:"description" binding:"omitempty"`
	TimerType        string  `json:"timer_type" binding:"required,oneof=per_test per_category"`
	ScoreType        string  `json:"score_type" binding:"required,oneof=default irt"`
	TotalTime        int     `json:"total_time" binding:"required_if=TimerType per_test,omitempty,min=1,max=1440"`
	PassGrade        float64 `json:"pass_grade" binding:"min=0,max=100"`
	ShuffleQuestions bool    `json:"shuffle_questions"`
	StartDate        string  `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate          string  `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Code             string  `json:"code" binding:"omitempty,min=4,max=20"`
	MaxAttempts      int     `json:"max_attempts" binding:"min=0"`
	AllowConcurrent  *bool   `json:"allow_concurrent"`
	IsGraded         bool    `json:"is_graded"`
	IsExplanationReleased bool `json:"is_explanation_released"`
	SupervisorID     *int    `json:"supervisor_id" binding:"omitempty"`
}

// UpdateTestRequest is the payload for an administrative test edit.
type UpdateTestRequest struct {
	Title            string   `json:"title" binding:"omitempty,min=3,max=255"`
	SubTitle         *string  `json:"sub_title" binding:"omitempty,max=255"`
	Description      *string  `json:"description" binding:"omitempty"`
	TimerType        string   `json:"timer_type" binding:"omitempty,oneof=per_test per_category"`
	ScoreType        string   `json:"score_type" binding:"omitempty,oneof=default irt"`
	TotalTime        *int     `json:"total_time" binding:"omitempty,min=1,max=1440"`
	PassGrade        *float64 `json:"pass_grade" binding:"omitempty,min=0,max=100"`
	ShuffleQuestions *bool    `json:"shuffle_questions"`
	StartDate        string   `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate          string   `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Code             *string  `json:"code" binding:"omitempty,min=4,max=20"`
	MaxAttempts      *int     `json:"max_attempts" binding:"omitempty,min=0"`
	AllowConcurrent  *bool    `json:"allow_concurrent"`
	IsGraded         *bool    `json:"is_graded"`
	IsExplanationReleased *bool `json:"is_explanation_released"`
	SupervisorID     *int     `json:"supervisor_id" binding:"omitempty"`
}

// AddCategoryRequest is the payload for adding a question category to a test.
type AddCategoryRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=255"`
	Position  int    `json:"position" binding:"min=0"`
	TimeLimit int    `json:"time_limit" binding:"min=0,max=1440"`
}
