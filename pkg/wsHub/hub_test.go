package ws

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Temutjin2k/taximeter/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, hub *ConnectionHub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConn(context.Background(), uuid.New(), c)
		if err := hub.Add(conn); err != nil {
			t.Errorf("add: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func waitLen(t *testing.T, hub *ConnectionHub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", hub.Len(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewConnHub(logger.New(io.Discard, "test", logger.LevelError))
	srv := newTestServer(t, hub)

	c1 := dial(t, srv)
	c2 := dial(t, srv)
	waitLen(t, hub, 2)

	if sent := hub.Broadcast(map[string]any{"fare_total": 640}); sent != 2 {
		t.Fatalf("sent to %d clients, want 2", sent)
	}

	for _, c := range []*websocket.Conn{c1, c2} {
		var got map[string]any
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := c.ReadJSON(&got); err != nil {
			t.Fatal(err)
		}
		if got["fare_total"] != float64(640) {
			t.Errorf("unexpected frame %v", got)
		}
	}

	hub.Close()
	if hub.Len() != 0 {
		t.Errorf("hub not empty after close")
	}
}

func TestDeleteUnknown(t *testing.T) {
	hub := NewConnHub(logger.New(io.Discard, "test", logger.LevelError))
	if err := hub.Delete(uuid.New()); err != ErrConnIsNotFound {
		t.Errorf("err = %v, want ErrConnIsNotFound", err)
	}
	if err := hub.Add(nil); err != ErrEmptyConn {
		t.Errorf("err = %v, want ErrEmptyConn", err)
	}
}

func TestPruneDropsClosedConn(t *testing.T) {
	hub := NewConnHub(logger.New(io.Discard, "test", logger.LevelError))
	srv := newTestServer(t, hub)

	dial(t, srv)
	dial(t, srv)
	waitLen(t, hub, 2)

	if n := hub.Prune(); n != 0 {
		t.Fatalf("pruned %d healthy clients", n)
	}

	var victim uuid.UUID
	for id, conn := range hub.Clients() {
		victim = id
		conn.Close()
		break
	}

	if n := hub.Prune(); n != 1 {
		t.Fatalf("pruned %d clients, want 1", n)
	}
	if _, err := hub.GetConn(victim); err != ErrConnIsNotFound {
		t.Errorf("closed client still registered: %v", err)
	}
	if err := hub.SendTo(victim, "x"); err != ErrConnIsNotFound {
		t.Errorf("SendTo err = %v, want ErrConnIsNotFound", err)
	}
	hub.Close()
}
