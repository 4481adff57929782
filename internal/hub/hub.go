package hub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Role tags a registered connection. Roles are self-declared by the
// connection's first message and not authenticated; admins see every
// violation broadcast.
type Role string

const (
	RoleNone    Role = ""
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type client struct {
	role      Role
	sessionID uuid.UUID // student session id; zero for admins
	alive     bool
}

// Hub is the realtime broadcast registry. It fans violation and
// force-logout events out to connected observers with best-effort,
// at-most-once delivery and reaps connections that stop answering
// pings. One instance is constructed at startup and injected into the
// handlers that need it; tests build their own.
type Hub struct {
	mu           sync.Mutex
	clients      map[Conn]*client
	pingInterval time.Duration
	log          zerolog.Logger
}

// New creates a Hub. pingInterval is the liveness sweep period; a
// connection silent across two intervals is closed and removed.
func New(pingInterval time.Duration, log zerolog.Logger) *Hub {
	return &Hub{
		clients:      make(map[Conn]*client),
		pingInterval: pingInterval,
		log:          log.With().Str("component", "hub").Logger(),
	}
}

// Register adds a fresh, untagged connection.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = &client{alive: true}
}

// JoinExam tags a connection as a student bound to one student session.
func (h *Hub) JoinExam(conn Conn, sessionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[conn]; ok {
		c.role = RoleStudent
		c.sessionID = sessionID
	}
}

// ConnectAdmin tags a connection as an admin observer.
func (h *Hub) ConnectAdmin(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[conn]; ok {
		c.role = RoleAdmin
		c.sessionID = uuid.Nil
	}
}

// SessionOf reports the student session a connection joined, if any.
func (h *Hub) SessionOf(conn Conn) (uuid.UUID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[conn]
	if !ok || c.role != RoleStudent {
		return uuid.Nil, false
	}
	return c.sessionID, true
}

// Touch marks a connection alive again (pong received).
func (h *Hub) Touch(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[conn]; ok {
		c.alive = true
	}
}

// Deregister removes a connection. Idempotent: close and error paths
// may both call it.
func (h *Hub) Deregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastToAdmins delivers an event to every admin connection.
// Fire-and-forget: a failed write is logged and left for the reaper.
func (h *Hub) BroadcastToAdmins(event any) {
	for _, conn := range h.snapshot(RoleAdmin, uuid.Nil) {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Debug().Err(err).Msg("Admin broadcast write failed")
		}
	}
}

// SendToSession delivers an event to the student connections bound to
// one student session (the forced-logout push).
func (h *Hub) SendToSession(sessionID uuid.UUID, event any) {
	for _, conn := range h.snapshot(RoleStudent, sessionID) {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Debug().Err(err).Str("student_session_id", sessionID.String()).Msg("Session write failed")
		}
	}
}

// snapshot copies the matching connections so writes happen outside
// the registry lock.
func (h *Hub) snapshot(role Role, sessionID uuid.UUID) []Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	var conns []Conn
	for conn, c := range h.clients {
		if c.role != role {
			continue
		}
		if role == RoleStudent && c.sessionID != sessionID {
			continue
		}
		conns = append(conns, conn)
	}
	return conns
}

// Run drives the liveness sweep until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	h.log.Info().Dur("interval", h.pingInterval).Msg("Hub liveness sweep started")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.reap()
		}
	}
}

// reap closes connections that never answered the previous ping, then
// pings the survivors. A pong before the next sweep calls Touch.
func (h *Hub) reap() {
	h.mu.Lock()
	var dead, live []Conn
	for conn, c := range h.clients {
		if !c.alive {
			dead = append(dead, conn)
			delete(h.clients, conn)
			continue
		}
		c.alive = false
		live = append(live, conn)
	}
	h.mu.Unlock()

	for _, conn := range dead {
		conn.Close()
	}
	if len(dead) > 0 {
		h.log.Info().Int("count", len(dead)).Msg("Reaped dead connections")
	}

	for _, conn := range live {
		if err := conn.Ping(); err != nil {
			h.Deregister(conn)
			conn.Close()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[Conn]*client)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
