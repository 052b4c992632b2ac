// Package client owns the single logical connection a local user keeps
// with the relay server: dialing, automatic reconnection with a bounded
// retry budget, teardown, and delivery of inbound messages into local
// state through a MessageSink.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
)

// State is the manager's connection lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	default:
		return "UNKNOWN"
	}
}

const (
	defaultReconnectDelay = 3000 * time.Millisecond
	defaultMaxAttempts    = 5
	defaultDialTimeout    = 10 * time.Second
)

// Config defines the manager's tunables. Zero values fall back to the
// package defaults.
type Config struct {
	// Endpoint is the relay websocket URL, e.g. ws://localhost:3001/ws.
	Endpoint string
	// ReconnectDelay is the fixed wait between reconnection attempts.
	ReconnectDelay time.Duration
	// MaxReconnectAttempts bounds the retry budget. Once exhausted the
	// manager stays down until Connect is called again explicitly.
	MaxReconnectAttempts int
	// DialTimeout bounds a single connection attempt; expiry is
	// handled like a transport close and feeds the retry policy.
	DialTimeout time.Duration
	// OnStateChange, when set, is notified of every state transition.
	// Invoked on its own goroutine so the callback may call back into
	// the manager.
	OnStateChange func(State)
}

func (c Config) withDefaults() Config {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = defaultReconnectDelay
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = defaultMaxAttempts
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	return c
}

// Manager maintains one connection to the relay on behalf of one user.
// Construct a single instance at application start and inject it where
// needed; it is not a package-level singleton.
type Manager struct {
	log  *slog.Logger
	cfg  Config
	sink contract.MessageSink

	mu       sync.Mutex
	conn     *websocket.Conn
	userID   string
	attempts int
	state    State
	// generation invalidates events from read pumps of older
	// connections, so a stale close cannot double-schedule reconnects.
	generation int
	retryTimer *time.Timer
}

func NewManager(log *slog.Logger, cfg Config, sink contract.MessageSink) *Manager {
	return &Manager{
		log:   log,
		cfg:   cfg.withDefaults(),
		sink:  sink,
		state: StateIdle,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect stores the user identifier, resets the retry budget, and
// opens a new transport to the relay. An error means this attempt
// failed; the manager keeps retrying on its own per the reconnect
// policy.
func (m *Manager) Connect(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.ErrMissingUserID
	}

	m.mu.Lock()
	m.userID = userID
	m.attempts = 0
	m.stopRetryLocked()
	m.mu.Unlock()

	return m.dial(ctx, userID)
}

func (m *Manager) dial(ctx context.Context, userID string) error {
	m.mu.Lock()
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	target, err := m.endpointFor(userID)
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, target, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		m.log.Error("Connection failed", "endpoint", m.cfg.Endpoint, "error", err)
		m.mu.Lock()
		m.setStateLocked(StateDisconnected)
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return fmt.Errorf("dialing relay: %w", err)
	}

	m.mu.Lock()
	if m.userID != userID {
		// Disconnect ran, or Connect switched identity, while this
		// attempt was in flight. The result is unwanted.
		m.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	m.conn = conn
	m.generation++
	m.attempts = 0
	m.setStateLocked(StateConnected)
	generation := m.generation
	m.mu.Unlock()

	m.log.Info("Connected to relay", "endpoint", m.cfg.Endpoint, "user_id", userID)
	go m.readPump(conn, generation)
	return nil
}

func (m *Manager) endpointFor(userID string) (string, error) {
	u, err := url.Parse(m.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid relay endpoint %q: %w", m.cfg.Endpoint, err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readPump drains inbound frames until the transport closes. Frames
// that do not decode are logged and discarded; the pump never stops
// over a bad frame.
func (m *Manager) readPump(conn *websocket.Conn, generation int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.log.Warn("Connection closed", "error", err)
			break
		}

		var frame domain.ErrorFrame
		if err := json.Unmarshal(data, &frame); err == nil && frame.Error != "" {
			m.log.Error("Relay rejected a frame", "error", frame.Error)
			continue
		}

		var msg domain.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			m.log.Error("Discarding undecodable frame", "error", err)
			continue
		}
		m.sink.AddMessage(msg)
	}
	m.pumpStopped(generation)
}

// pumpStopped handles the close of one specific connection. Closes of
// superseded connections are ignored: only the live generation drives
// the reconnect transition.
func (m *Manager) pumpStopped(generation int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		return
	}
	m.conn = nil

	if m.userID == "" {
		// Explicit disconnect already ran; nothing to resume.
		m.setStateLocked(StateIdle)
		return
	}
	m.setStateLocked(StateDisconnected)
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked applies the bounded fixed-delay retry
// policy. The attempt counter increments before each scheduled retry;
// once the budget is spent, reconnection stops until an explicit
// Connect resets it. Callers hold m.mu.
func (m *Manager) scheduleReconnectLocked() {
	if m.userID == "" {
		return
	}
	if m.attempts >= m.cfg.MaxReconnectAttempts {
		m.log.Error("Max reconnection attempts reached", "max", m.cfg.MaxReconnectAttempts)
		return
	}
	m.attempts++
	attempt := m.attempts
	userID := m.userID

	m.setStateLocked(StateReconnecting)
	m.retryTimer = time.AfterFunc(m.cfg.ReconnectDelay, func() {
		m.log.Info(fmt.Sprintf("Attempting to reconnect (%d/%d)...", attempt, m.cfg.MaxReconnectAttempts))
		_ = m.dial(context.Background(), userID)
	})
}

func (m *Manager) stopRetryLocked() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
}

// SendMessage submits a draft for relaying. The transport must
// currently be connected: there is no queueing of unsent messages, the
// caller is told instead so nothing is silently lost.
func (m *Manager) SendMessage(draft domain.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected || m.conn == nil {
		m.log.Error("Cannot send, not connected", "state", m.state.String())
		return errors.ErrNotConnected
	}
	return m.conn.WriteJSON(draft)
}

// Disconnect is the explicit, user-initiated teardown. It clears the
// stored identifier and suppresses any pending reconnect attempt.
// Idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.userID = ""
	m.stopRetryLocked()
	conn := m.conn
	m.conn = nil
	// Invalidate the running pump so its close event is ignored.
	m.generation++
	m.setStateLocked(StateIdle)
	m.mu.Unlock()

	if conn != nil {
		frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

// setStateLocked records a transition and notifies the observer.
// Callers hold m.mu.
func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	if m.cfg.OnStateChange != nil {
		go m.cfg.OnStateChange(s)
	}
}
