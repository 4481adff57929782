package websocket

import (
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
)

// Field names on the socket are camelCase: the wire protocol predates
// this server and the deployed clients send/expect these exact keys.

// ─── Message types (both directions) ────────────────────────────────

type MessageType string

const (
	// Client → server
	TypeJoinExam     MessageType = "join_exam"
	TypeAdminConnect MessageType = "admin_connect"
	TypeViolation    MessageType = "violation"

	// Server → client
	TypeViolationAlert   MessageType = "violation_alert"
	TypeViolationCreated MessageType = "violation_created"
	TypeForceLogout      MessageType = "force_logout"
)

// Envelope is used to peek at the type before full parsing.
type Envelope struct {
	Type MessageType `json:"type"`
}

// ─── Client → server ────────────────────────────────────────────────

// JoinExamMessage tags the connection as a student bound to one
// student session.
type JoinExamMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"sessionId"`
}

// ViolationMessage is a student's live report of a detected violation,
// relayed to admin observers as a ViolationAlert.
type ViolationMessage struct {
	Type          MessageType `json:"type"`
	ViolationType string      `json:"violationType"`
	Details       string      `json:"details"`
	WarningCount  int         `json:"warningCount"`
}

// ─── Server → client ────────────────────────────────────────────────

// ViolationAlert is the admin-side fan-out of a live violation report.
type ViolationAlert struct {
	Type          MessageType `json:"type"`
	SessionID     string      `json:"sessionId"`
	ViolationType string      `json:"violationType"`
	Details       string      `json:"details"`
	WarningCount  int         `json:"warningCount"`
	Timestamp     time.Time   `json:"timestamp"`
}

// ViolationCreated notifies admins that the ingestion path persisted a
// violation.
type ViolationCreated struct {
	Type      MessageType      `json:"type"`
	Violation *model.Violation `json:"violation"`
}

// ForceLogout pushes a termination notice to the offending student.
type ForceLogout struct {
	Type MessageType `json:"type"`
}

// NewViolationCreated builds the admin notification for one violation.
func NewViolationCreated(v *model.Violation) ViolationCreated {
	return ViolationCreated{Type: TypeViolationCreated, Violation: v}
}

// NewForceLogout builds the student termination push.
func NewForceLogout() ForceLogout {
	return ForceLogout{Type: TypeForceLogout}
}
