package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType enumerates supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// AutoGradable reports whether answers of this type are scored at write time.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Question is a bank question belonging to a test's question category.
// Attempts never reference it live; a snapshot is copied at category start.
type Question struct {
	ID                uuid.UUID       `json:"id"`
	QuestionCategoryID uuid.UUID      `json:"question_category_id"`
	QuestionText      string          `json:"question_text"`
	QuestionType      QuestionType    `json:"question_type"`
	Options           json.RawMessage `json:"options"`
	AnswerKey         string          `json:"answer_key,omitempty"`
	Point             float64         `json:"point"`
	IRTDifficulty     float64         `json:"irt_difficulty"`
	IRTDiscrimination float64         `json:"irt_discrimination"`
	Explanation       string          `json:"explanation,omitempty"`
	OrderNum          int             `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a bank question to a category.
type AddQuestionRequest struct {
	QuestionText      string          `json:"question_text" binding:"required,min=1,max=4000"`
	QuestionType      string          `json:"question_type" binding:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE ESSAY"`
	Options           json.RawMessage `json:"options" binding:"omitempty"`
	AnswerKey         string          `json:"answer_key" binding:"omitempty,max=10"`
	Point             float64         `json:"point" binding:"min=0"`
	IRTDifficulty     float64         `json:"irt_difficulty"`
	IRTDiscrimination float64         `json:"irt_discrimination"`
	Explanation       string          `json:"explanation" binding:"omitempty"`
	OrderNum          int             `json:"order_num" binding:"min=0"`
}
