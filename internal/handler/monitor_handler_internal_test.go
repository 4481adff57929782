package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newStreamContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/monitor", nil)
	return c, w
}

func TestStreamForwardsAndStopsOnClosedChannel(t *testing.T) {
	h := NewMonitorHandler(nil, nil, nil, zerolog.Nop())
	c, w := newStreamContext(t)

	ch := make(chan *redis.Message, 1)
	ch <- &redis.Message{Payload: `{"type":"violation","terminated":false}`}
	close(ch)

	done := make(chan struct{})
	go func() {
		h.stream(c, ch, uuid.New())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not return after the channel closed")
	}

	body := w.Body.String()
	if !strings.Contains(body, `data: {"type":"violation","terminated":false}`) {
		t.Errorf("payload not forwarded, body: %q", body)
	}
}

func TestStreamStopsOnClientDisconnect(t *testing.T) {
	h := NewMonitorHandler(nil, nil, nil, zerolog.Nop())
	c, _ := newStreamContext(t)

	cancelled, cancel := context.WithCancel(c.Request.Context())
	c.Request = c.Request.WithContext(cancelled)

	ch := make(chan *redis.Message)

	done := make(chan struct{})
	go func() {
		h.stream(c, ch, uuid.New())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not return after disconnect")
	}
}
