package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionSlot is one question instance snapshotted into a session at start
// time. It tracks the dispense/answer lifecycle of that question:
//
//	created (sent_at null) → dispensed (sent_at + deadline_at set) →
//	answered (answered_at + answer_id set) or forfeited (deadline passed).
//
// A forfeited slot is never re-dispensed.
type QuestionSlot struct {
	ID         int64      `json:"id"`
	SessionID  uuid.UUID  `json:"session_id"`
	QuestionID uuid.UUID  `json:"question_id"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	DeadlineAt *time.Time `json:"deadline_at,omitempty"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	AnswerID   *uuid.UUID `json:"answer_id,omitempty"`
	IsCorrect  bool       `json:"is_correct"`
	Point      int        `json:"point"`
}

// Answerable reports whether the slot may still accept an answer at ref time.
func (s *QuestionSlot) Answerable(ref time.Time) bool {
	return s.SentAt != nil && s.AnsweredAt == nil && s.DeadlineAt != nil && ref.Before(*s.DeadlineAt)
}

// ExamSummary is the final scoring record of a completed session.
type ExamSummary struct {
	Correct        int    `json:"correct"`
	Incorrect      int    `json:"incorrect"`
	Total          int    `json:"total"`
	SuccessRate    int    `json:"success_rate"`
	Point          int    `json:"point"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	Elapsed        string `json:"elapsed"`
}
