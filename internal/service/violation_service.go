package service

import (
	"context"
	"encoding/json"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/config"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ViolationStore is the persistence surface for the audit trail.
type ViolationStore interface {
	Create(ctx context.Context, v *model.Violation) error
	ListBySession(ctx context.Context, studentSessionID uuid.UUID) ([]model.Violation, error)
	ListAllDetails(ctx context.Context) ([]model.ViolationDetail, error)
}

// ViolationService is the ingestion path: it persists a reported
// violation, advances the warning counter and decides termination.
// Steps run strictly in order: persist → count → decide → notify.
type ViolationService struct {
	violations ViolationStore
	sessions   *SessionService
	rdb        *redis.Client // optional; nil disables monitor publishing
	log        zerolog.Logger
}

// NewViolationService creates a new ViolationService.
func NewViolationService(violations ViolationStore, sessions *SessionService, rdb *redis.Client, log zerolog.Logger) *ViolationService {
	return &ViolationService{
		violations: violations,
		sessions:   sessions,
		rdb:        rdb,
		log:        log.With().Str("component", "violation_service").Logger(),
	}
}

// IngestResult reports the outcome of one ingestion for the caller to
// message the originating client and the broadcast hub.
type IngestResult struct {
	Violation  *model.Violation      `json:"violation"`
	Session    *model.StudentSession `json:"session"`
	Terminated bool                  `json:"terminated"`
}

// Ingest validates and records a violation report. A session that has
// already been closed rejects further reports (ErrSessionInactive).
// The violation row is persisted before the counter moves, so the
// audit trail never misses a counted warning. Two concurrent
// ingestions for one session may both observe the threshold and both
// call Terminate; that is safe because Terminate is idempotent.
func (s *ViolationService) Ingest(ctx context.Context, req *model.CreateViolationRequest) (*IngestResult, error) {
	sess, err := s.sessions.GetByID(ctx, req.StudentSessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive {
		return nil, ErrSessionInactive
	}

	v := &model.Violation{
		StudentSessionID: req.StudentSessionID,
		Type:             req.Type,
		Details:          req.Details,
	}
	if err := s.violations.Create(ctx, v); err != nil {
		return nil, err
	}

	updated, err := s.sessions.RecordWarning(ctx, req.StudentSessionID)
	if err != nil {
		return nil, err
	}

	terminated := false
	if s.sessions.ShouldTerminate(updated) {
		updated, err = s.sessions.Terminate(ctx, updated.ID, "warning threshold reached")
		if err != nil {
			// The increment is already durable; the caller may retry the
			// whole ingestion, which re-evaluates and terminates.
			return nil, err
		}
		terminated = true
	}

	s.log.Info().
		Str("student_session_id", req.StudentSessionID.String()).
		Str("type", req.Type).
		Int("warning_count", updated.WarningCount).
		Bool("terminated", terminated).
		Msg("Violation ingested")

	result := &IngestResult{Violation: v, Session: updated, Terminated: terminated}
	s.publish(ctx, result)
	return result, nil
}

// publish mirrors the event onto the exam's Redis channel for SSE
// monitors. Best-effort: a publish failure is logged, never surfaced.
func (s *ViolationService) publish(ctx context.Context, result *IngestResult) {
	if s.rdb == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"type":          "violation",
		"violation":     result.Violation,
		"warning_count": result.Session.WarningCount,
		"terminated":    result.Terminated,
	})
	if err != nil {
		return
	}

	channel := config.ChannelKey.ExamViolationChannel(result.Session.ExamSessionID.String())
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("Monitor publish failed")
	}
}

// ListAllDetails lists every violation with student and exam context.
func (s *ViolationService) ListAllDetails(ctx context.Context) ([]model.ViolationDetail, error) {
	return s.violations.ListAllDetails(ctx)
}

// ListBySession lists one session's violations, newest first.
func (s *ViolationService) ListBySession(ctx context.Context, studentSessionID uuid.UUID) ([]model.Violation, error) {
	return s.violations.ListBySession(ctx, studentSessionID)
}
