package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2/channel"
)

var _ channel.Channel = (*wsChannel)(nil)

func newTestWSServer(t *testing.T) (string, *Server) {
	t.Helper()
	a, _, _ := newTestApi(t)
	s := NewServer(nil, a, &Config{Secret: testSecret})
	srv := httptest.NewServer(s.handler())
	t.Cleanup(func() {
		s.notifier.CloseAll()
		srv.Close()
		s.rpc.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/jsonrpc/ws", s
}

func dialWS(t *testing.T, ctx context.Context, url, token string) *cws.Conn {
	t.Helper()
	conn, _, err := cws.Dial(ctx, url, &cws.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close(cws.StatusNormalClosure, "") })
	return conn
}

func waitRegistered(t *testing.T, s *Server) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.notifier.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("WebSocket session was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readMessage(t *testing.T, ctx context.Context, conn *cws.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("WebSocket read failed: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

func TestWebSocketEndpoint_AuthRequired(t *testing.T) {
	url, _ := newTestWSServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, resp, err := cws.Dial(ctx, url, &cws.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer wrong-token"}},
	})
	if err == nil {
		t.Fatal("expected error for wrong token")
	}
	if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestWebSocketEndpoint_CallAndPush(t *testing.T) {
	url, s := newTestWSServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialWS(t, ctx, url, testSecret)
	waitRegistered(t, s)

	req, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "settings.setRegion",
		"params":  map[string]any{"region": "US"},
		"id":      1,
	})
	if err := conn.Write(ctx, cws.MessageText, req); err != nil {
		t.Fatalf("WebSocket write failed: %v", err)
	}

	// Reply and push may arrive in either order.
	var gotReply, gotPush bool
	for !(gotReply && gotPush) {
		msg := readMessage(t, ctx, conn)
		switch {
		case msg["id"] != nil:
			if msg["error"] != nil {
				t.Fatalf("unexpected error %v", msg["error"])
			}
			gotReply = true
		case msg["method"] == "settings.changed":
			params := msg["params"].(map[string]any)
			if params["key"] != "gameRegion" {
				t.Fatalf("unexpected push params %v", params)
			}
			gotPush = true
		}
	}
}

func TestWebSocketEndpoint_Broadcast(t *testing.T) {
	url, s := newTestWSServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialWS(t, ctx, url, testSecret)

	waitRegistered(t, s)
	s.notifier.Broadcast("scheduler.tick", map[string]any{"now": "2024-01-01T00:00:00Z"})

	msg := readMessage(t, ctx, conn)
	if msg["method"] != "scheduler.tick" {
		t.Fatalf("expected scheduler.tick push, got %v", msg)
	}
}
