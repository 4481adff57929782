package repository

import (
	"context"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ViolationRepository handles the append-only violation audit trail.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// Create appends a violation. Rows are never updated or deleted.
func (r *ViolationRepository) Create(ctx context.Context, v *model.Violation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO violations (student_session_id, type, details)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		v.StudentSessionID, v.Type, v.Details,
	).Scan(&v.ID, &v.Timestamp)
}

// ListBySession retrieves all violations for one student session, newest first.
func (r *ViolationRepository) ListBySession(ctx context.Context, studentSessionID uuid.UUID) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_session_id, type, details, created_at
		 FROM violations WHERE student_session_id = $1
		 ORDER BY created_at DESC`, studentSessionID,
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

// ListAllDetails retrieves every violation decorated with the owning
// student and exam, newest first. Feeds the admin violation log.
func (r *ViolationRepository) ListAllDetails(ctx context.Context) ([]model.ViolationDetail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.student_session_id, v.type, v.details, v.created_at,
		        s.id, s.name, s.email, s.created_at,
		        e.id, e.title, e.description, e.duration_minutes, e.is_active, e.started_at, e.ended_at
		 FROM violations v
		 JOIN student_sessions ss ON v.student_session_id = ss.id
		 JOIN students s ON ss.student_id = s.id
		 JOIN exam_sessions e ON ss.exam_session_id = e.id
		 ORDER BY v.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []model.ViolationDetail{}
	for rows.Next() {
		var d model.ViolationDetail
		if err := rows.Scan(
			&d.ID, &d.StudentSessionID, &d.Type, &d.Details, &d.Timestamp,
			&d.Student.ID, &d.Student.Name, &d.Student.Email, &d.Student.CreatedAt,
			&d.ExamSession.ID, &d.ExamSession.Title, &d.ExamSession.Description, &d.ExamSession.DurationMinutes,
			&d.ExamSession.IsActive, &d.ExamSession.StartedAt, &d.ExamSession.EndedAt,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
