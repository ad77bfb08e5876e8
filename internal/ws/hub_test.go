package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sheetbridge/sheetbridge/internal/ws"
)

func startHub(t *testing.T) (*ws.Hub, *httptest.Server) {
	t.Helper()
	hub := ws.New()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var msg ws.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func TestConnectedEventOnDial(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv)

	msg := readMessage(t, conn)
	if msg.Event != "connected" {
		t.Errorf("event: got %q, want connected", msg.Event)
	}
	if msg.Table != "" {
		t.Errorf("table: got %q, want empty", msg.Table)
	}
	if _, err := time.Parse(time.RFC3339, msg.At); err != nil {
		t.Errorf("at %q is not RFC3339: %v", msg.At, err)
	}
}

func TestPublishReachesAllClients(t *testing.T) {
	hub, srv := startHub(t)

	c1 := dial(t, srv)
	c2 := dial(t, srv)
	readMessage(t, c1) // drain connected events
	readMessage(t, c2)

	waitForClients(t, hub, 2)
	hub.Publish("write", "Assets")

	for _, conn := range []*websocket.Conn{c1, c2} {
		msg := readMessage(t, conn)
		if msg.Event != "write" {
			t.Errorf("event: got %q, want write", msg.Event)
		}
		if msg.Table != "Assets" {
			t.Errorf("table: got %q, want Assets", msg.Table)
		}
	}
}

func TestPublishWithoutTable(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)

	waitForClients(t, hub, 1)
	hub.Publish("cache_cleared", "")

	msg := readMessage(t, conn)
	if msg.Event != "cache_cleared" {
		t.Errorf("event: got %q, want cache_cleared", msg.Event)
	}
	if msg.Table != "" {
		t.Errorf("table: got %q, want empty", msg.Table)
	}
}

func TestCountTracksConnections(t *testing.T) {
	hub, srv := startHub(t)
	if hub.Count() != 0 {
		t.Fatalf("initial count: got %d, want 0", hub.Count())
	}

	conn := dial(t, srv)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

// waitForClients polls Count until it matches or the deadline passes.
// Registration happens in the server goroutine, so a dial returning does not
// mean the hub has seen the client yet.
func waitForClients(t *testing.T, hub *ws.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count: got %d, want %d", hub.Count(), want)
}
