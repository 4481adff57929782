package service

import (
	"context"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/rs/zerolog"
)

// StudentService handles student registration and lookup.
type StudentService struct {
	students StudentStore
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students StudentStore, log zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// Create registers a new student. Email uniqueness is enforced by the store.
func (s *StudentService) Create(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	student := &model.Student{Name: req.Name, Email: req.Email}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}

	s.log.Info().Str("student_id", student.ID.String()).Msg("Student registered")
	return student, nil
}

// FindByEmail returns a zero- or one-element slice, matching the
// lookup-by-email list endpoint.
func (s *StudentService) FindByEmail(ctx context.Context, email string) ([]model.Student, error) {
	student, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		if mapStoreErr(err) == ErrNotFound {
			return []model.Student{}, nil
		}
		return nil, err
	}
	return []model.Student{*student}, nil
}
