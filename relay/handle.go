package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

// wsHandle wraps a websocket connection behind the contract.Handle
// interface. The mutex serializes writers: gorilla allows at most one
// concurrent writer per connection.
type wsHandle struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func newHandle(conn *websocket.Conn) *wsHandle {
	return &wsHandle{conn: conn}
}

func (h *wsHandle) WriteJSON(v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn.WriteJSON(v)
}

// Shutdown sends a policy-violation close frame with the reason, then
// tears the socket down. Calling it on an already closed handle is a
// no-op.
func (h *wsHandle) Shutdown(reason string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	frame := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = h.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(closeGracePeriod))
	return h.conn.Close()
}
