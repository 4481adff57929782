package model

import (
	"time"

	"github.com/google/uuid"
)

// Violation categories reported by the client-side detector. The set is
// open-ended; the server stores the tag verbatim.
const (
	ViolationTabSwitch    = "tab-switch"
	ViolationCopyAttempt  = "copy-attempt"
	ViolationPasteAttempt = "paste-attempt"
	ViolationCutAttempt   = "cut-attempt"
	ViolationContextMenu  = "context-menu"
)

// Violation is an immutable audit log entry owned by one StudentSession.
type Violation struct {
	ID               uuid.UUID `json:"id"`
	StudentSessionID uuid.UUID `json:"student_session_id"`
	Type             string    `json:"type"`
	Details          *string   `json:"details,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// ViolationDetail decorates a violation with the session it belongs to
// and that session's student and exam, for the admin dashboard listing.
type ViolationDetail struct {
	Violation
	Student     Student     `json:"student"`
	ExamSession ExamSession `json:"exam_session"`
}

// CreateViolationRequest is the ingestion payload.
type CreateViolationRequest struct {
	StudentSessionID uuid.UUID `json:"student_session_id" binding:"required"`
	Type             string    `json:"type" binding:"required,min=2,max=64"`
	Details          *string   `json:"details" binding:"omitempty,max=1000"`
}
