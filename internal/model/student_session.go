package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentSession is one student's participation in one exam session and
// the unit of warning tracking. At most one active row may exist per
// (student_id, exam_session_id) pair. WarningCount never decreases;
// once it reaches the termination threshold the row goes inactive and
// stays that way.
type StudentSession struct {
	ID            uuid.UUID  `json:"id"`
	StudentID     uuid.UUID  `json:"student_id"`
	ExamSessionID uuid.UUID  `json:"exam_session_id"`
	WarningCount  int        `json:"warning_count"`
	IsActive      bool       `json:"is_active"`
	JoinedAt      time.Time  `json:"joined_at"`
	LeftAt        *time.Time `json:"left_at,omitempty"`
}

// StudentSessionDetail is the read-side projection of a session joined
// with its student, exam and violation history. Write paths never use it.
type StudentSessionDetail struct {
	StudentSession
	Student     Student     `json:"student"`
	ExamSession ExamSession `json:"exam_session"`
	Violations  []Violation `json:"violations"`
}

// JoinExamRequest is the payload for a student joining an exam.
type JoinExamRequest struct {
	StudentID     uuid.UUID `json:"student_id" binding:"required"`
	ExamSessionID uuid.UUID `json:"exam_session_id" binding:"required"`
}

// UpdateStudentSessionRequest closes a session voluntarily.
// The only supported transition is is_active=false (submission).
type UpdateStudentSessionRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
