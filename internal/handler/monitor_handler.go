package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/config"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/response"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keepAliveInterval = 30 * time.Second

// MonitorHandler streams one exam's live violation feed to admin
// dashboards over SSE. Events arrive via Redis Pub/Sub from the
// ingestion path, so any number of server replicas can feed the same
// monitor.
type MonitorHandler struct {
	rdb            *redis.Client
	examService    *service.ExamSessionService
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, examService *service.ExamSessionService, sessionService *service.SessionService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		examService:    examService,
		sessionService: sessionService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExamSSE godoc
// GET /api/v1/admin/exam-sessions/:id/monitor
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	reqCtx := c.Request.Context()

	exam, err := h.examService.GetByID(reqCtx, examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial snapshot: every session of this exam with its violations.
	sessions, err := h.sessionService.ListDetailsByExam(reqCtx, examID)
	if err != nil {
		h.log.Warn().Err(err).Str("exam_session_id", examID.String()).Msg("Snapshot query failed")
		sessions = nil
	}
	c.SSEvent("message", map[string]interface{}{
		"type": "snapshot",
		"data": map[string]interface{}{
			"exam_session": exam,
			"sessions":     sessions,
		},
	})
	c.Writer.Flush()

	channelName := config.ChannelKey.ExamViolationChannel(examID.String())
	pubsub := h.rdb.Subscribe(reqCtx, channelName)
	defer pubsub.Close()

	h.log.Info().Str("exam_session_id", examID.String()).Msg("Admin attached to monitor SSE")
	h.stream(c, pubsub.Channel(), examID)
	h.log.Info().Str("exam_session_id", examID.String()).Msg("Admin detached from monitor SSE")
}

// stream forwards pub/sub payloads to the SSE writer until the client
// disconnects or the subscription channel closes (Redis connection
// loss); the client's EventSource reconnects and gets a fresh snapshot.
func (h *MonitorHandler) stream(c *gin.Context, ch <-chan *redis.Message, examID uuid.UUID) {
	reqCtx := c.Request.Context()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				h.log.Warn().Str("exam_session_id", examID.String()).Msg("Monitor subscription closed")
				return
			}
			// Forward raw JSON directly, no deserialization needed.
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}
