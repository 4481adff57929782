package repository

import (
	"context"
	"errors"
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentSessionRepository handles student session data access.
type StudentSessionRepository struct {
	pool *pgxpool.Pool
}

// NewStudentSessionRepository creates a new StudentSessionRepository.
func NewStudentSessionRepository(pool *pgxpool.Pool) *StudentSessionRepository {
	return &StudentSessionRepository{pool: pool}
}

const studentSessionColumns = `id, student_id, exam_session_id, warning_count, is_active, joined_at, left_at`

func scanStudentSession(row interface{ Scan(...any) error }) (*model.StudentSession, error) {
	s := &model.StudentSession{}
	err := row.Scan(&s.ID, &s.StudentID, &s.ExamSessionID, &s.WarningCount, &s.IsActive, &s.JoinedAt, &s.LeftAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a student session by ID.
func (r *StudentSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StudentSession, error) {
	return scanStudentSession(r.pool.QueryRow(ctx,
		`SELECT `+studentSessionColumns+` FROM student_sessions WHERE id = $1`, id))
}

// ListByStudentAndExam retrieves every session (active or closed) for
// one (student, exam) pair, newest first. The lifecycle manager uses
// this for the lockout-before-create check.
func (r *StudentSessionRepository) ListByStudentAndExam(ctx context.Context, studentID, examSessionID uuid.UUID) ([]model.StudentSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentSessionColumns+`
		 FROM student_sessions
		 WHERE student_id = $1 AND exam_session_id = $2
		 ORDER BY joined_at DESC`, studentID, examSessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.StudentSession
	for rows.Next() {
		s, err := scanStudentSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Create inserts a new student session (student joins the exam).
func (r *StudentSessionRepository) Create(ctx context.Context, s *model.StudentSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO student_sessions (student_id, exam_session_id)
		 VALUES ($1, $2)
		 RETURNING id, warning_count, is_active, joined_at`,
		s.StudentID, s.ExamSessionID,
	).Scan(&s.ID, &s.WarningCount, &s.IsActive, &s.JoinedAt)
}

// IncrementWarning bumps warning_count by exactly one at the storage
// level and returns the updated row. The increment is a single atomic
// UPDATE expression, never a read-modify-write, so concurrent calls for
// the same session cannot lose updates.
func (r *StudentSessionRepository) IncrementWarning(ctx context.Context, id uuid.UUID) (*model.StudentSession, error) {
	return scanStudentSession(r.pool.QueryRow(ctx,
		`UPDATE student_sessions
		 SET warning_count = warning_count + 1
		 WHERE id = $1
		 RETURNING `+studentSessionColumns, id))
}

// Close marks a session inactive and stamps left_at. Idempotent: a
// second call leaves the original left_at in place and keeps the row
// inactive, so terminate/submit races are harmless.
func (r *StudentSessionRepository) Close(ctx context.Context, id uuid.UUID, leftAt time.Time) (*model.StudentSession, error) {
	return scanStudentSession(r.pool.QueryRow(ctx,
		`UPDATE student_sessions
		 SET is_active = FALSE, left_at = COALESCE(left_at, $2)
		 WHERE id = $1
		 RETURNING `+studentSessionColumns, id, leftAt))
}

// GetDetail retrieves one session joined with its student and exam,
// plus the full violation history.
func (r *StudentSessionRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.StudentSessionDetail, error) {
	d := &model.StudentSessionDetail{}
	err := r.pool.QueryRow(ctx, detailSelect+` WHERE ss.id = $1`, id).Scan(detailDest(d)...)
	if err != nil {
		return nil, err
	}

	violations, err := r.listViolations(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Violations = violations
	return d, nil
}

// ListActiveDetails retrieves every active session with details, newest
// first. Feeds the admin dashboard and the SSE monitor snapshot.
func (r *StudentSessionRepository) ListActiveDetails(ctx context.Context) ([]model.StudentSessionDetail, error) {
	return r.listDetails(ctx, detailSelect+` WHERE ss.is_active ORDER BY ss.joined_at DESC`)
}

// ListDetailsByExam retrieves every session for one exam with details.
func (r *StudentSessionRepository) ListDetailsByExam(ctx context.Context, examSessionID uuid.UUID) ([]model.StudentSessionDetail, error) {
	return r.listDetails(ctx, detailSelect+` WHERE ss.exam_session_id = $1 ORDER BY ss.joined_at DESC`, examSessionID)
}

const detailSelect = `
	SELECT ss.id, ss.student_id, ss.exam_session_id, ss.warning_count, ss.is_active, ss.joined_at, ss.left_at,
	       s.id, s.name, s.email, s.created_at,
	       e.id, e.title, e.description, e.duration_minutes, e.is_active, e.started_at, e.ended_at
	FROM student_sessions ss
	JOIN students s ON ss.student_id = s.id
	JOIN exam_sessions e ON ss.exam_session_id = e.id`

func detailDest(d *model.StudentSessionDetail) []any {
	return []any{
		&d.ID, &d.StudentID, &d.ExamSessionID, &d.WarningCount, &d.IsActive, &d.JoinedAt, &d.LeftAt,
		&d.Student.ID, &d.Student.Name, &d.Student.Email, &d.Student.CreatedAt,
		&d.ExamSession.ID, &d.ExamSession.Title, &d.ExamSession.Description, &d.ExamSession.DurationMinutes,
		&d.ExamSession.IsActive, &d.ExamSession.StartedAt, &d.ExamSession.EndedAt,
	}
}

func (r *StudentSessionRepository) listDetails(ctx context.Context, query string, args ...any) ([]model.StudentSessionDetail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []model.StudentSessionDetail
	for rows.Next() {
		var d model.StudentSessionDetail
		if err := rows.Scan(detailDest(&d)...); err != nil {
			return nil, err
		}
		d.Violations = []model.Violation{}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Violation histories fetched per session; the active set is small
	// (one row per student currently sitting an exam).
	for i := range details {
		violations, err := r.listViolations(ctx, details[i].ID)
		if err != nil {
			return nil, err
		}
		details[i].Violations = violations
	}
	return details, nil
}

func (r *StudentSessionRepository) listViolations(ctx context.Context, sessionID uuid.UUID) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_session_id, type, details, created_at
		 FROM violations WHERE student_session_id = $1
		 ORDER BY created_at DESC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	violations := []model.Violation{}
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.ID, &v.StudentSessionID, &v.Type, &v.Details, &v.Timestamp); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// IsNotFound reports whether err is the no-rows result of a point lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
