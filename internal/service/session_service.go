package service

import (
	"context"
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WarningThreshold is the fixed warning count at which a student
// session is terminated automatically.
const WarningThreshold = 3

// StudentSessionStore is the persistence surface the lifecycle manager
// needs. Missing ids yield an error satisfying repository.IsNotFound.
type StudentSessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.StudentSession, error)
	ListByStudentAndExam(ctx context.Context, studentID, examSessionID uuid.UUID) ([]model.StudentSession, error)
	Create(ctx context.Context, s *model.StudentSession) error
	// IncrementWarning must be atomic at the storage level; callers rely
	// on concurrent increments for one id never losing updates.
	IncrementWarning(ctx context.Context, id uuid.UUID) (*model.StudentSession, error)
	Close(ctx context.Context, id uuid.UUID, leftAt time.Time) (*model.StudentSession, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*model.StudentSessionDetail, error)
	ListActiveDetails(ctx context.Context) ([]model.StudentSessionDetail, error)
	ListDetailsByExam(ctx context.Context, examSessionID uuid.UUID) ([]model.StudentSessionDetail, error)
}

// StudentStore is the student lookup surface used by services.
type StudentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	Create(ctx context.Context, s *model.Student) error
}

// ExamSessionStore is the exam session surface used by services.
type ExamSessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	ListAll(ctx context.Context) ([]model.ExamSession, error)
	ListActive(ctx context.Context) ([]model.ExamSession, error)
	Create(ctx context.Context, e *model.ExamSession) error
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamSessionRequest) (*model.ExamSession, error)
}

// SessionService enforces the student session state machine: creation,
// warning accumulation, termination, voluntary submission and re-entry
// blocking. The store is the single source of truth; no warning count
// is cached here.
type SessionService struct {
	sessions StudentSessionStore
	students StudentStore
	exams    ExamSessionStore
	log      zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessions StudentSessionStore, students StudentStore, exams ExamSessionStore, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		students: students,
		exams:    exams,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// JoinOrResume resolves a student's session for one exam. A prior
// session terminated at the warning threshold blocks the pair forever
// (ErrLockout). An existing active session is returned as-is, so
// repeated joins are idempotent. Otherwise a fresh session is created.
func (s *SessionService) JoinOrResume(ctx context.Context, studentID, examSessionID uuid.UUID) (*model.StudentSession, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return nil, mapStoreErr(err)
	}
	exam, err := s.exams.GetByID(ctx, examSessionID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	existing, err := s.sessions.ListByStudentAndExam(ctx, studentID, examSessionID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if !existing[i].IsActive && existing[i].WarningCount >= WarningThreshold {
			return &existing[i], ErrLockout
		}
	}
	for i := range existing {
		if existing[i].IsActive {
			return &existing[i], nil
		}
	}

	if !exam.IsActive {
		return nil, ErrExamClosed
	}

	sess := &model.StudentSession{StudentID: studentID, ExamSessionID: examSessionID}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("student_session_id", sess.ID.String()).
		Str("student_id", studentID.String()).
		Str("exam_session_id", examSessionID.String()).
		Msg("Student joined exam")

	return sess, nil
}

// RecordWarning increments the session's warning count by exactly one
// and returns the updated record. A closed session never accumulates
// warnings: a voluntary submission must not later cross the threshold
// and turn into a lockout record.
func (s *SessionService) RecordWarning(ctx context.Context, id uuid.UUID) (*model.StudentSession, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !sess.IsActive {
		return nil, ErrSessionInactive
	}

	updated, err := s.sessions.IncrementWarning(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return updated, nil
}

// ShouldTerminate is the pure termination decision: the session is
// still active and has accumulated the threshold number of warnings.
func (s *SessionService) ShouldTerminate(sess *model.StudentSession) bool {
	return sess.IsActive && sess.WarningCount >= WarningThreshold
}

// Terminate force-closes a session. Idempotent: closing an already
// inactive session is a no-op, not an error.
func (s *SessionService) Terminate(ctx context.Context, id uuid.UUID, reason string) (*model.StudentSession, error) {
	sess, err := s.sessions.Close(ctx, id, time.Now())
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.log.Warn().
		Str("student_session_id", id.String()).
		Int("warning_count", sess.WarningCount).
		Str("reason", reason).
		Msg("Student session terminated")

	return sess, nil
}

// Submit closes a session voluntarily, independent of warning count.
// Shares the underlying transition with Terminate; whichever lands
// first wins and the other is a no-op.
func (s *SessionService) Submit(ctx context.Context, id uuid.UUID) (*model.StudentSession, error) {
	sess, err := s.sessions.Close(ctx, id, time.Now())
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.log.Info().
		Str("student_session_id", id.String()).
		Msg("Student session submitted")

	return sess, nil
}

// GetByID fetches the bare session row.
func (s *SessionService) GetByID(ctx context.Context, id uuid.UUID) (*model.StudentSession, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return sess, nil
}

// GetDetail fetches the session with student, exam and violations.
func (s *SessionService) GetDetail(ctx context.Context, id uuid.UUID) (*model.StudentSessionDetail, error) {
	d, err := s.sessions.GetDetail(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return d, nil
}

// ListActiveDetails lists all currently active sessions with details.
func (s *SessionService) ListActiveDetails(ctx context.Context) ([]model.StudentSessionDetail, error) {
	return s.sessions.ListActiveDetails(ctx)
}

// ListDetailsByExam lists all sessions for one exam with details.
func (s *SessionService) ListDetailsByExam(ctx context.Context, examSessionID uuid.UUID) ([]model.StudentSessionDetail, error) {
	return s.sessions.ListDetailsByExam(ctx, examSessionID)
}

// ListByStudentAndExam lists all sessions for a (student, exam) pair.
func (s *SessionService) ListByStudentAndExam(ctx context.Context, studentID, examSessionID uuid.UUID) ([]model.StudentSession, error) {
	return s.sessions.ListByStudentAndExam(ctx, studentID, examSessionID)
}

// mapStoreErr translates the store's no-rows result into ErrNotFound.
func mapStoreErr(err error) error {
	if repository.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}
