package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ParticipantQuestion is one question instance bound to a participant
// category. The question content is a frozen snapshot taken at category
// start, so later edits to the bank never change what the participant saw.
type ParticipantQuestion struct {
	ID                    uuid.UUID       `json:"id"`
	ParticipantCategoryID uuid.UUID       `json:"participant_category_id"`
	QuestionID            uuid.UUID       `json:"question_id"`
	QuestionText          string          `json:"question_text"`
	QuestionType          QuestionType    `json:"question_type"`
	Options               json.RawMessage `json:"options"`
	AnswerKey             string          `json:"-"` // never serialized to participants
	MaxPoint              float64         `json:"max_point"`
	IRTDifficulty         float64         `json:"-"`
	IRTDiscrimination     float64         `json:"-"`
	UserAnswer            *string         `json:"user_answer,omitempty"`
	Point                 *float64        `json:"point,omitempty"`
	IsCorrect             *bool           `json:"is_correct,omitempty"`
	IsFlagged             bool            `json:"is_flagged"`
	IsGraded              bool            `json:"is_graded"`
	OrderNum              int             `json:"order_num"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// SaveAnswerRequest is the payload for saving an answer.
type SaveAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Answer     string `json:"answer" binding:"required,max=10000"`
}

// ResetAnswerRequest clears a saved answer without touching the flag.
type ResetAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
}

// FlagQuestionRequest marks or unmarks a question for review.
type FlagQuestionRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Flagged    *bool  `json:"flagged" binding:"required"`
}

// GradeEssayRequest is the payload for manually grading an essay answer.
type GradeEssayRequest struct {
	Point    float64 `json:"point" binding:"min=0"`
	IsGraded *bool   `json:"is_graded" binding:"required"`
}
