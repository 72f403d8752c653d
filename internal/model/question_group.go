package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionGroup is a named pool of questions an exam session draws from.
type QuestionGroup struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// AssignExamRequest is the payload for assigning a question group to the caller.
type AssignExamRequest struct {
	GroupID uuid.UUID `json:"group_id" binding:"required"`
}
