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

// ExamSessionHandler handles exam scheduling endpoints.
type ExamSessionHandler struct {
	examService *service.ExamSessionService
	log         zerolog.Logger
}

// NewExamSessionHandler creates a new ExamSessionHandler.
func NewExamSessionHandler(examService *service.ExamSessionService, log zerolog.Logger) *ExamSessionHandler {
	return &ExamSessionHandler{
		examService: examService,
		log:         log.With().Str("component", "exam_session_handler").Logger(),
	}
}

// CreateExamSession godoc
// POST /api/v1/exam-sessions
func (h *ExamSessionHandler) CreateExamSession(c *gin.Context) {
	var req model.CreateExamSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Msg("Create exam session failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, exam)
}

// ListExamSessions godoc
// GET /api/v1/exam-sessions
func (h *ExamSessionHandler) ListExamSessions(c *gin.Context) {
	sessions, err := h.examService.ListAll(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List exam sessions failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, sessions)
}

// ListActiveExamSessions godoc
// GET /api/v1/exam-sessions/active
func (h *ExamSessionHandler) ListActiveExamSessions(c *gin.Context) {
	sessions, err := h.examService.ListActive(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List active exam sessions failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, sessions)
}

// GetExamSession godoc
// GET /api/v1/exam-sessions/:id
func (h *ExamSessionHandler) GetExamSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Get exam session failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, exam)
}

// UpdateExamSession godoc
// PATCH /api/v1/exam-sessions/:id
func (h *ExamSessionHandler) UpdateExamSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Update exam session failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, exam)
}
