package handler

import (
	"errors"
	"net/http"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/repository"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/response"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/service"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// StudentHandler handles student registration and lookup endpoints.
type StudentHandler struct {
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// CreateStudent godoc
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		h.log.Error().Err(err).Msg("Create student failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, student)
}

// ListStudents godoc
// GET /api/v1/students?email=
// Returns a zero- or one-element array for an email lookup; an empty
// query returns an empty array.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.Success(c, http.StatusOK, []model.Student{})
		return
	}

	students, err := h.studentService.FindByEmail(c.Request.Context(), email)
	if err != nil {
		h.log.Error().Err(err).Msg("Student lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, students)
}
