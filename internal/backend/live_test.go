package backend

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "http", base: "http://127.0.0.1:8000", want: "ws://127.0.0.1:8000/ws"},
		{name: "https", base: "https://backend.example", want: "wss://backend.example/ws"},
		{name: "trailing slash", base: "http://127.0.0.1:8000/", want: "ws://127.0.0.1:8000/ws"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := WebSocketURL(tc.base); got != tc.want {
				t.Fatalf("WebSocketURL(%q) = %q, want %q", tc.base, got, tc.want)
			}
		})
	}
}

func TestLiveFeed_DeliversFileChanges(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(map[string]string{"type": "heartbeat"})
		conn.WriteJSON(map[string]string{"type": "file_change", "file": "deconstruction.json"})
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	events := make(chan FileChange, 4)
	feed := NewLiveFeed(
		server.URL,
		time.Hour,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		func(e FileChange) { events <- e },
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	select {
	case event := <-events:
		if event.Type != "file_change" || event.File != "deconstruction.json" {
			t.Fatalf("event = %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no file_change event delivered")
	}
}
