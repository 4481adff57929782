package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const examSessionColumns = `id, title, description, duration_minutes, is_active, started_at, ended_at`

func scanExamSession(row interface{ Scan(...any) error }) (*model.ExamSession, error) {
	e := &model.ExamSession{}
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.DurationMinutes, &e.IsActive, &e.StartedAt, &e.EndedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam session by ID.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return scanExamSession(r.pool.QueryRow(ctx,
		`SELECT `+examSessionColumns+` FROM exam_sessions WHERE id = $1`, id))
}

// ListAll retrieves every exam session, newest first.
func (r *ExamSessionRepository) ListAll(ctx context.Context) ([]model.ExamSession, error) {
	return r.list(ctx, `SELECT `+examSessionColumns+` FROM exam_sessions ORDER BY started_at DESC`)
}

// ListActive retrieves exam sessions that are still open, newest first.
func (r *ExamSessionRepository) ListActive(ctx context.Context) ([]model.ExamSession, error) {
	return r.list(ctx, `SELECT `+examSessionColumns+` FROM exam_sessions WHERE is_active ORDER BY started_at DESC`)
}

func (r *ExamSessionRepository) list(ctx context.Context, query string, args ...any) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		e, err := scanExamSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *e)
	}
	return sessions, rows.Err()
}

// Create inserts a new exam session.
func (r *ExamSessionRepository) Create(ctx context.Context, e *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (title, description, duration_minutes)
		 VALUES ($1, $2, $3)
		 RETURNING id, is_active, started_at`,
		e.Title, e.Description, e.DurationMinutes,
	).Scan(&e.ID, &e.IsActive, &e.StartedAt)
}

// Update applies a partial update and returns the new row. Closing an
// exam (is_active=false) stamps ended_at exactly once.
func (r *ExamSessionRepository) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamSessionRequest) (*model.ExamSession, error) {
	query := `UPDATE exam_sessions SET id = id`
	var args []any

	if req.Title != nil {
		args = append(args, *req.Title)
		query += `, title = $` + strconv.Itoa(len(args))
	}
	if req.Description != nil {
		args = append(args, *req.Description)
		query += `, description = $` + strconv.Itoa(len(args))
	}
	if req.DurationMinutes != nil {
		args = append(args, *req.DurationMinutes)
		query += `, duration_minutes = $` + strconv.Itoa(len(args))
	}
	if req.IsActive != nil {
		args = append(args, *req.IsActive)
		query += `, is_active = $` + strconv.Itoa(len(args))
		if !*req.IsActive {
			args = append(args, time.Now())
			query += `, ended_at = COALESCE(ended_at, $` + strconv.Itoa(len(args)) + `)`
		}
	}

	args = append(args, id)
	query += ` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + examSessionColumns

	return scanExamSession(r.pool.QueryRow(ctx, query, args...))
}
