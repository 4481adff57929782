package handler

import (
	"errors"
	"net/http"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/hub"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/response"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/service"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/validator"
	ws "github.com/DeviNivedithaD/ExamProtoringSystem/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ViolationHandler handles violation ingestion and the audit listing.
// Ingestion is the authoritative path: it persists, escalates and fans
// the outcome out to connected observers.
type ViolationHandler struct {
	violationService *service.ViolationService
	hub              *hub.Hub
	log              zerolog.Logger
}

// NewViolationHandler creates a new ViolationHandler.
func NewViolationHandler(violationService *service.ViolationService, h *hub.Hub, log zerolog.Logger) *ViolationHandler {
	return &ViolationHandler{
		violationService: violationService,
		hub:              h,
		log:              log.With().Str("component", "violation_handler").Logger(),
	}
}

// CreateViolation godoc
// POST /api/v1/violations
// Persists the report, increments the session's warning count and, when
// the threshold is reached, terminates the session and pushes a
// force_logout to the student's connections. Admin observers receive
// exactly one violation_created per accepted report.
func (h *ViolationHandler) CreateViolation(c *gin.Context) {
	var req model.CreateViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.violationService.Ingest(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionInactive):
			response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
		default:
			h.log.Error().Err(err).Msg("Violation ingestion failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	h.hub.BroadcastToAdmins(ws.NewViolationCreated(result.Violation))
	if result.Terminated {
		h.hub.SendToSession(result.Session.ID, ws.NewForceLogout())
	}

	response.Success(c, http.StatusCreated, result)
}

// ListViolations godoc
// GET /api/v1/violations
// Returns every violation with student and exam context, newest first.
func (h *ViolationHandler) ListViolations(c *gin.Context) {
	details, err := h.violationService.ListAllDetails(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List violations failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, details)
}

// ListSessionViolations godoc
// GET /api/v1/violations/student-session/:id
func (h *ViolationHandler) ListSessionViolations(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	violations, err := h.violationService.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error().Err(err).Msg("List session violations failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, violations)
}
