package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// FileChange is a live-update notification from the backend. The channel is
// advisory: operations never depend on it.
type FileChange struct {
	Type string `json:"type"`
	File string `json:"file"`
}

// LiveFeed maintains a WebSocket connection to the backend's /ws endpoint,
// reconnecting on a fixed delay until its context is cancelled.
type LiveFeed struct {
	url        string
	retryDelay time.Duration
	logger     *slog.Logger
	onEvent    func(FileChange)
}

func NewLiveFeed(baseURL string, retryDelay time.Duration, logger *slog.Logger, onEvent func(FileChange)) *LiveFeed {
	return &LiveFeed{
		url:        WebSocketURL(baseURL),
		retryDelay: retryDelay,
		logger:     logger,
		onEvent:    onEvent,
	}
}

// WebSocketURL derives the ws(s):// endpoint from an http(s) base URL.
func WebSocketURL(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(trimmed, "https://"):
		return "wss://" + strings.TrimPrefix(trimmed, "https://") + "/ws"
	case strings.HasPrefix(trimmed, "http://"):
		return "ws://" + strings.TrimPrefix(trimmed, "http://") + "/ws"
	}
	return trimmed + "/ws"
}

// Run connects and consumes notifications until ctx is cancelled. Dial and
// read failures wait for the retry delay and reconnect.
func (f *LiveFeed) Run(ctx context.Context) {
	for {
		if err := f.consume(ctx); err != nil && ctx.Err() == nil {
			f.logger.Warn("live feed disconnected", "url", f.url, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.retryDelay):
		}
	}
}

func (f *LiveFeed) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.logger.Info("live feed connected", "url", f.url)

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event FileChange
		if err := json.Unmarshal(message, &event); err != nil {
			f.logger.Warn("live feed: malformed message", "error", err)
			continue
		}
		if event.Type != "file_change" {
			continue
		}

		f.logger.Info("file changed", "file", event.File)
		if f.onEvent != nil {
			f.onEvent(event)
		}
	}
}
