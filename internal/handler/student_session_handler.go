package handler

import (
	"errors"
	"net/http"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/response"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/service"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StudentSessionHandler handles the student attendance lifecycle:
// joining an exam, warning escalation and voluntary submission.
type StudentSessionHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewStudentSessionHandler creates a new StudentSessionHandler.
func NewStudentSessionHandler(sessionService *service.SessionService, log zerolog.Logger) *StudentSessionHandler {
	return &StudentSessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "student_session_handler").Logger(),
	}
}

// JoinExam godoc
// POST /api/v1/student-sessions
// Resumes the student's active session if one exists. A student who was
// terminated for violations is permanently locked out of that exam and
// receives 403 with the terminated session attached.
func (h *StudentSessionHandler) JoinExam(c *gin.Context) {
	var req model.JoinExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.JoinOrResume(c.Request.Context(), req.StudentID, req.ExamSessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLockout):
			response.FailWithData(c, http.StatusForbidden, response.ErrSessionTerminated, gin.H{
				"terminated": true,
				"session":    session,
			})
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrExamClosed):
			response.Fail(c, http.StatusConflict, response.ErrExamClosed)
		default:
			h.log.Error().Err(err).Msg("Join exam failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, session)
}

// ListActiveSessions godoc
// GET /api/v1/student-sessions/active
// Returns every active session with student, exam and violation
// details for the admin dashboard.
func (h *StudentSessionHandler) ListActiveSessions(c *gin.Context) {
	details, err := h.sessionService.ListActiveDetails(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List active sessions failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, details)
}

// ListByStudentAndExam godoc
// GET /api/v1/student-sessions/by-student-exam?student_id=&exam_session_id=
// Returns every session (active or closed) for one pair, newest first.
func (h *StudentSessionHandler) ListByStudentAndExam(c *gin.Context) {
	studentID, err := uuid.Parse(c.Query("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	examID, err := uuid.Parse(c.Query("exam_session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sessions, err := h.sessionService.ListByStudentAndExam(c.Request.Context(), studentID, examID)
	if err != nil {
		h.log.Error().Err(err).Msg("List sessions by pair failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, sessions)
}

// GetStudentSession godoc
// GET /api/v1/student-sessions/:id
func (h *StudentSessionHandler) GetStudentSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.sessionService.GetDetail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Get student session failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// UpdateStudentSession godoc
// PATCH /api/v1/student-sessions/:id
// Only supports closing the session (is_active=false), which records a
// voluntary submission. Closing is idempotent.
func (h *StudentSessionHandler) UpdateStudentSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateStudentSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.IsActive == nil || *req.IsActive {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	session, err := h.sessionService.Submit(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Submit session failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, session)
}

// RecordWarning godoc
// POST /api/v1/student-sessions/:id/warning
// Increments the warning counter without attaching a violation record
// and terminates the session once the threshold is reached. Closed
// sessions reject further warnings.
func (h *StudentSessionHandler) RecordWarning(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	ctx := c.Request.Context()
	session, err := h.sessionService.RecordWarning(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionInactive):
			response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
		default:
			h.log.Error().Err(err).Msg("Record warning failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	terminated := false
	if h.sessionService.ShouldTerminate(session) {
		session, err = h.sessionService.Terminate(ctx, id, "warning threshold reached")
		if err != nil {
			h.log.Error().Err(err).Msg("Terminate after warning failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		terminated = true
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":    session,
		"terminated": terminated,
	})
}
