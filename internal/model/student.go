package model

import (
	"time"

	"github.com/google/uuid"
)

// Student represents a registered exam taker.
type Student struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateStudentRequest is the payload for registering a new student.
type CreateStudentRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=100"`
	Email string `json:"email" binding:"required,email,max=255"`
}
