package tdjson

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketTransport speaks JSON frames to a tdjson gateway sidecar over a
// websocket. One frame out per request, one frame in per update envelope.
// A single reader goroutine owns the connection's read side; Receive pulls
// from its channel so an idle timeout never poisons the connection.
type WebsocketTransport struct {
	conn *websocket.Conn
	log  *slog.Logger

	frames chan []byte

	writeMu sync.Mutex

	mu      sync.Mutex
	readErr error
	closed  bool
}

// Dial connects to the tdjson gateway at the given ws:// or wss:// URL.
func Dial(ctx context.Context, url string, log *slog.Logger) (*WebsocketTransport, error) {
	if log == nil {
		log = slog.Default()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("tdjson: dial %s: %w", url, err)
	}

	t := &WebsocketTransport{
		conn:   conn,
		log:    log.With("component", "tdjson"),
		frames: make(chan []byte, 64),
	}
	go t.readLoop()
	return t, nil
}

func (t *WebsocketTransport) readLoop() {
	defer close(t.frames)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			if !t.closed {
				t.readErr = err
			}
			t.mu.Unlock()
			return
		}
		t.frames <- data
	}
}

// Send marshals the request and writes it as a single frame.
func (t *WebsocketTransport) Send(ctx context.Context, req any) error {
	if t.isClosed() {
		return ErrClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("tdjson: set write deadline: %w", err)
		}
	}
	if err := t.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("tdjson: send request: %w", err)
	}
	return nil
}

// Receive blocks up to timeout for the next update envelope. An idle
// timeout returns (nil, nil); a closed connection returns ErrClosed.
func (t *WebsocketTransport) Receive(timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data, ok := <-t.frames:
		if !ok {
			t.mu.Lock()
			err := t.readErr
			t.mu.Unlock()
			if err != nil {
				return nil, fmt.Errorf("tdjson: receive: %w", err)
			}
			return nil, ErrClosed
		}
		return data, nil
	case <-timer.C:
		return nil, nil
	}
}

// Close shuts the connection down.
func (t *WebsocketTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.writeMu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()

	return t.conn.Close()
}

func (t *WebsocketTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
