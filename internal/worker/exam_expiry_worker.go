package worker

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const sweepInterval = 30 * time.Second

// ExamExpiryWorker closes exam sessions whose duration has elapsed and
// soft-closes the student sessions still attached to them. Runs on a
// fixed sweep so a crashed sweep is retried on the next tick; both
// updates are idempotent.
type ExamExpiryWorker struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewExamExpiryWorker creates a new ExamExpiryWorker.
func NewExamExpiryWorker(pool *pgxpool.Pool, log zerolog.Logger) *ExamExpiryWorker {
	return &ExamExpiryWorker{
		pool: pool,
		log:  log.With().Str("component", "exam_expiry_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *ExamExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExamExpiryWorker) sweep(ctx context.Context) {
	now := time.Now()

	tag, err := w.pool.Exec(ctx, `
		UPDATE exam_sessions
		SET is_active = FALSE, ended_at = COALESCE(ended_at, $1)
		WHERE is_active = TRUE
		  AND started_at + (duration_minutes * INTERVAL '1 minute') <= $1`, now)
	if err != nil {
		w.log.Error().Err(err).Msg("Exam expiry sweep failed")
		return
	}
	if tag.RowsAffected() == 0 {
		return
	}

	w.log.Info().Int64("expired", tag.RowsAffected()).Msg("Closed elapsed exam sessions")

	// Students still marked active in a closed exam submitted nothing;
	// their sessions are closed with the exam's end time.
	tag, err = w.pool.Exec(ctx, `
		UPDATE student_sessions
		SET is_active = FALSE, left_at = COALESCE(left_at, $1)
		WHERE is_active = TRUE
		  AND exam_session_id IN (SELECT id FROM exam_sessions WHERE is_active = FALSE)`, now)
	if err != nil {
		w.log.Error().Err(err).Msg("Student session close sweep failed")
		return
	}
	if tag.RowsAffected() > 0 {
		w.log.Info().Int64("closed", tag.RowsAffected()).Msg("Closed student sessions of expired exams")
	}
}
