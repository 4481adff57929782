package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/hub"
	ws "github.com/DeviNivedithaD/ExamProtoringSystem/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the realtime proctoring socket. Every connection
// registers with the hub untagged and declares itself via its first
// message; malformed messages are logged and dropped without closing
// the connection.
type WSHandler struct {
	hub      *hub.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(h *hub.Hub, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:      h,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ProctorStream godoc
// WS /ws
// Upgrades to WebSocket for violation alerts and forced-logout pushes.
func (h *WSHandler) ProctorStream(c *gin.Context) {
	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	conn := hub.NewGorillaConn(raw)
	h.hub.Register(conn)
	raw.SetPongHandler(func(string) error {
		h.hub.Touch(conn)
		return nil
	})

	defer func() {
		h.hub.Deregister(conn)
		raw.Close()
	}()

	wsLog := h.log.With().Str("remote_addr", raw.RemoteAddr().String()).Logger()
	wsLog.Info().Msg("Client connected")

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var env ws.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			wsLog.Warn().Err(err).Msg("Malformed message dropped")
			continue
		}

		switch env.Type {
		case ws.TypeJoinExam:
			h.handleJoinExam(conn, wsLog, data)
		case ws.TypeAdminConnect:
			h.hub.ConnectAdmin(conn)
			wsLog.Info().Msg("Admin observer connected")
		case ws.TypeViolation:
			h.handleViolation(conn, wsLog, data)
		default:
			wsLog.Warn().Str("type", string(env.Type)).Msg("Unknown message type dropped")
		}
	}
}

// handleJoinExam tags the connection as a student bound to one student
// session.
func (h *WSHandler) handleJoinExam(conn hub.Conn, wsLog zerolog.Logger, data []byte) {
	var msg ws.JoinExamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		wsLog.Warn().Err(err).Msg("Malformed join_exam dropped")
		return
	}

	sessionID, err := uuid.Parse(msg.SessionID)
	if err != nil {
		wsLog.Warn().Str("session_id", msg.SessionID).Msg("join_exam with invalid session id dropped")
		return
	}

	h.hub.JoinExam(conn, sessionID)
	wsLog.Info().Str("student_session_id", sessionID.String()).Msg("Student joined stream")
}

// handleViolation relays a student's live report to admin observers.
// The socket path is advisory; the REST ingestion endpoint is the
// authoritative record.
func (h *WSHandler) handleViolation(conn hub.Conn, wsLog zerolog.Logger, data []byte) {
	sessionID, ok := h.hub.SessionOf(conn)
	if !ok {
		wsLog.Warn().Msg("Violation from connection that never joined dropped")
		return
	}

	var msg ws.ViolationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		wsLog.Warn().Err(err).Msg("Malformed violation dropped")
		return
	}

	h.hub.BroadcastToAdmins(ws.ViolationAlert{
		Type:          ws.TypeViolationAlert,
		SessionID:     sessionID.String(),
		ViolationType: msg.ViolationType,
		Details:       msg.Details,
		WarningCount:  msg.WarningCount,
		Timestamp:     time.Now().UTC(),
	})
}
