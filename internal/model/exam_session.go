package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession is a scheduled exam instance that students join.
// IsActive transitions true→false exactly once, when the exam is closed.
type ExamSession struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsActive        bool       `json:"is_active"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// CreateExamSessionRequest is the payload for scheduling a new exam.
type CreateExamSessionRequest struct {
	Title           string  `json:"title" binding:"required,min=2,max=200"`
	Description     *string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=1,max=1440"`
}

// UpdateExamSessionRequest is a partial update; nil fields are untouched.
// Setting IsActive to false closes the exam and stamps EndedAt.
type UpdateExamSessionRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=2,max=200"`
	Description     *string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
	IsActive        *bool   `json:"is_active"`
}
