package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Conn is the minimal connection surface the hub needs. Narrow on
// purpose: tests register fakes, production registers gorilla sockets.
type Conn interface {
	WriteJSON(v any) error
	Ping() error
	Close() error
}

// gorillaConn adapts *websocket.Conn to Conn with write deadlines.
// Gorilla permits at most one concurrent data-frame writer, and hub
// fan-out reaches one connection from many goroutines (HTTP handlers
// and every read loop), so writes are serialized here.
type gorillaConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewGorillaConn wraps a gorilla WebSocket connection for hub use.
func NewGorillaConn(conn *websocket.Conn) Conn {
	return &gorillaConn{conn: conn}
}

func (g *gorillaConn) WriteJSON(v any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return g.conn.WriteJSON(v)
}

func (g *gorillaConn) Ping() error {
	return g.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (g *gorillaConn) Close() error {
	return g.conn.Close()
}
