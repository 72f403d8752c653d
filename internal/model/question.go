package model

import (
	"github.com/google/uuid"
)

// Question belongs to a question group. Inactive questions are excluded from
// session snapshots but stay referenced by slots created before deactivation.
type Question struct {
	ID           uuid.UUID `json:"id"`
	GroupID      uuid.UUID `json:"group_id"`
	QuestionText string    `json:"question_text"`
	Active       bool      `json:"active"`
	Position     int       `json:"position"`
}

// Answer is one candidate answer of a question.
type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	AnswerText string    `json:"answer_text"`
	IsCorrect  bool      `json:"is_correct"`
}

// AnswerOption is the user-facing shape of an answer, correctness stripped.
type AnswerOption struct {
	ID         uuid.UUID `json:"id"`
	AnswerText string    `json:"answer_text"`
}

// QuestionPayload is the user-facing shape of a question with its options.
// Option order is randomized per dispense, not here.
type QuestionPayload struct {
	ID           uuid.UUID      `json:"id"`
	QuestionText string         `json:"question_text"`
	Options      []AnswerOption `json:"options"`
}

// ChooseAnswerRequest is the payload for answering a dispensed question.
type ChooseAnswerRequest struct {
	Question uuid.UUID `json:"question" binding:"required"`
	Answer   uuid.UUID `json:"answer" binding:"required"`
}
