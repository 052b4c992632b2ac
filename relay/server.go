// Package relay implements the realtime messaging relay: a websocket
// endpoint that tracks connected users and forwards chat messages
// between them. The relay is transport-only; it never stores a message
// after forwarding it.
package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
)

const (
	reasonUserIDRequired = "User ID is required"
	reasonSuperseded     = "connection superseded by a newer one"
)

type Server struct {
	log      *slog.Logger
	registry contract.IRegistry
	stats    *observability.RelayStats
	upgrader websocket.Upgrader
}

// NewServer wires the relay handler to its registry and stats. The
// registry is owned by the caller's run loop and passed in explicitly,
// never reached as ambient global state.
func NewServer(log *slog.Logger, registry contract.IRegistry, stats *observability.RelayStats) *Server {
	return &Server{
		log:      log,
		registry: registry,
		stats:    stats,
		upgrader: websocket.Upgrader{
			// Identity is an opaque, pre-validated string; the relay
			// does not gate on origin either.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and runs its read loop to
// completion. A missing or empty userId query parameter is rejected
// with a policy-violation close before the connection is registered.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "error", err)
		return
	}
	handle := newHandle(conn)

	if userID == "" {
		s.stats.IncrRejections()
		_ = handle.Shutdown(reasonUserIDRequired)
		return
	}

	if prev := s.registry.Register(userID, handle); prev != nil {
		// The replaced socket would otherwise linger until it errors
		// on its own.
		s.log.Info("Replacing existing connection", "user_id", userID)
		_ = prev.Shutdown(reasonSuperseded)
	}
	s.stats.ConnectionOpened()
	s.log.Info(fmt.Sprintf("Client connected: %s", userID))

	defer func() {
		s.registry.Remove(userID, handle)
		s.stats.ConnectionClosed()
		s.log.Info(fmt.Sprintf("Client disconnected: %s", userID))
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Read error", "user_id", userID, "error", err)
			}
			return
		}
		s.handleFrame(userID, handle, data)
	}
}

// handleFrame processes one inbound frame from an open connection.
// Unprocessable frames get a one-shot error reply; the connection
// stays open for further attempts.
func (s *Server) handleFrame(userID string, sender contract.Handle, data []byte) {
	var draft domain.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		s.reject(userID, sender, "Failed to process message", err)
		return
	}
	if err := draft.Validate(); err != nil {
		s.reject(userID, sender, "Failed to process message", err)
		return
	}
	if draft.SenderID != userID {
		s.reject(userID, sender, "Sender does not match connection",
			fmt.Errorf("%w: frame claims %q on connection of %q", errors.ErrSenderMismatch, draft.SenderID, userID))
		return
	}

	msg := draft.Seal(uuid.NewString(), time.Now().UTC())

	// Forward to the receiver when reachable. An offline receiver is
	// not an error: presence is racy, the message is simply dropped.
	if receiver, ok := s.registry.Lookup(msg.ReceiverID); ok {
		if err := receiver.WriteJSON(msg); err != nil {
			s.stats.IncrDropped()
			s.log.Warn("Forward failed", "receiver_id", msg.ReceiverID, "error", err)
		} else {
			s.stats.IncrForwarded()
		}
	} else {
		s.stats.IncrDropped()
	}

	// The echo confirms delivery to the sender with the authoritative
	// id and timestamp, whatever happened on the forwarding side.
	if err := sender.WriteJSON(msg); err != nil {
		s.log.Warn("Echo failed", "sender_id", userID, "error", err)
		return
	}
	s.stats.IncrEchoes()
}

func (s *Server) reject(userID string, sender contract.Handle, reason string, cause error) {
	s.stats.IncrInvalidFrames()
	s.log.Error("Rejecting frame", "user_id", userID, "reason", reason, "error", cause)
	if err := sender.WriteJSON(domain.ErrorFrame{Error: reason}); err != nil {
		s.log.Warn("Error reply failed", "user_id", userID, "error", err)
	}
}
