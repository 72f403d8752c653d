package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession represents one user's attempt at a question group.
// StartedAt nil means assigned but not started; EndedAt nil means in progress.
type ExamSession struct {
	ID        uuid.UUID  `json:"id"`
	GroupID   uuid.UUID  `json:"group_id"`
	UserID    int        `json:"user_id"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Started reports whether the session has been started.
func (s *ExamSession) Started() bool { return s.StartedAt != nil }

// Ended reports whether the session has been finished.
func (s *ExamSession) Ended() bool { return s.EndedAt != nil }

// SessionOverview is a session with aggregate slot counts, for listings.
// IncorrectCount follows the slot default: it counts wrong answers and
// never-answered slots alike.
type SessionOverview struct {
	ID             uuid.UUID  `json:"id"`
	GroupID        uuid.UUID  `json:"group_id"`
	GroupName      string     `json:"group_name"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	TotalCount     int        `json:"questions_count"`
	AnsweredCount  int        `json:"answered_questions_count"`
	CorrectCount   int        `json:"correct_questions_count"`
	IncorrectCount int        `json:"incorrect_questions_count"`
	Point          int        `json:"point"`
}
