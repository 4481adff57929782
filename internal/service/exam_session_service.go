package service

import (
	"context"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExamSessionService handles exam scheduling and closure.
type ExamSessionService struct {
	exams ExamSessionStore
	log   zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(exams ExamSessionStore, log zerolog.Logger) *ExamSessionService {
	return &ExamSessionService{
		exams: exams,
		log:   log.With().Str("component", "exam_session_service").Logger(),
	}
}

// Create schedules a new exam session, active immediately.
func (s *ExamSessionService) Create(ctx context.Context, req *model.CreateExamSessionRequest) (*model.ExamSession, error) {
	exam := &model.ExamSession{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, err
	}

	s.log.Info().Str("exam_session_id", exam.ID.String()).Str("title", exam.Title).Msg("Exam session created")
	return exam, nil
}

// GetByID fetches one exam session.
func (s *ExamSessionService) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return exam, nil
}

// ListAll lists every exam session, newest first.
func (s *ExamSessionService) ListAll(ctx context.Context) ([]model.ExamSession, error) {
	return s.exams.ListAll(ctx)
}

// ListActive lists open exam sessions, newest first.
func (s *ExamSessionService) ListActive(ctx context.Context) ([]model.ExamSession, error) {
	return s.exams.ListActive(ctx)
}

// Update applies a partial update; closing the exam stamps ended_at.
func (s *ExamSessionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamSessionRequest) (*model.ExamSession, error) {
	exam, err := s.exams.Update(ctx, id, req)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if req.IsActive != nil && !*req.IsActive {
		s.log.Info().Str("exam_session_id", id.String()).Msg("Exam session closed")
	}
	return exam, nil
}
