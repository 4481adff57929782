package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// dialTestConn upgrades a real server-side gorilla connection and
// returns it with a draining client and a cleanup func.
func dialTestConn(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}

	// Drain so server writes never block on a full buffer.
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var raw *websocket.Conn
	select {
	case raw = <-serverConns:
	case <-time.After(time.Second):
		t.Fatal("server connection never arrived")
	}

	return raw, func() {
		client.Close()
		raw.Close()
		srv.Close()
	}
}

// One admin socket, many simultaneous ingestions: every fan-out write
// lands on the same connection and must be serialized by the adapter.
func TestConcurrentBroadcastsToOneConnection(t *testing.T) {
	raw, cleanup := dialTestConn(t)
	defer cleanup()

	h := New(time.Hour, zerolog.Nop())
	conn := NewGorillaConn(raw)
	h.Register(conn)
	h.ConnectAdmin(conn)

	const writers = 64
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			h.BroadcastToAdmins(map[string]string{"type": "violation_created"})
		}()
	}
	wg.Wait()
}

func TestGorillaConnConcurrentWriteAndPing(t *testing.T) {
	raw, cleanup := dialTestConn(t)
	defer cleanup()

	conn := NewGorillaConn(raw)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 32; i++ {
			if err := conn.WriteJSON(map[string]int{"seq": i}); err != nil {
				t.Errorf("write: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 32; i++ {
			if err := conn.Ping(); err != nil {
				t.Errorf("ping: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}
