// Package projection builds local conversation state from delivered
// messages. It holds the client's ordered message log and the current
// conversation selection; it does not emit events or touch the wire.
package projection

import (
	"sync"

	"github.com/samber/lo"

	"chat-relay/domain"
)

// ConversationLog is the process-wide ordered log of every message
// seen by this client, across all conversations. Log order is arrival
// order: server timestamps across distinct connections are not
// guaranteed monotonic relative to local arrival, so the append
// sequence is the authoritative total order.
type ConversationLog struct {
	mu       sync.RWMutex
	messages []domain.Message
	active   string
}

func NewConversationLog() *ConversationLog {
	return &ConversationLog{}
}

// AddMessage appends to the end of the log. Called for every received
// message and for local optimistic sends.
func (l *ConversationLog) AddMessage(msg domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// SetActiveConversation replaces the selection. Pure state, no effect
// on the log.
func (l *ConversationLog) SetActiveConversation(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = id
}

// ActiveConversation returns the current selection, empty if none.
func (l *ConversationLog) ActiveConversation() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MarkMessageAsRead flags the message in place. Unknown ids are a
// no-op, not an error.
func (l *ConversationLog) MarkMessageAsRead(messageID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.messages {
		if l.messages[i].ID == messageID {
			l.messages[i].IsRead = true
			return
		}
	}
}

// Messages returns a copy of the full log in arrival order.
func (l *ConversationLog) Messages() []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// ConversationWith derives the view of one conversation: every message
// between the local user and the other party, in either direction, in
// log order. Derived on demand, never stored.
func (l *ConversationLog) ConversationWith(localUser, otherParty string) []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Filter(l.messages, func(m domain.Message, _ int) bool {
		return m.Belongs(localUser, otherParty)
	})
}

// Peers lists every other party the local user has exchanged messages
// with, in order of first appearance.
func (l *ConversationLog) Peers(localUser string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var peers []string
	seen := make(map[string]struct{})
	for _, m := range l.messages {
		other := m.SenderID
		if m.SenderID == localUser {
			other = m.ReceiverID
		}
		if _, ok := seen[other]; !ok {
			seen[other] = struct{}{}
			peers = append(peers, other)
		}
	}
	return peers
}

// UnreadCount counts messages addressed to the local user not yet
// marked as read.
func (l *ConversationLog) UnreadCount(localUser string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.CountBy(l.messages, func(m domain.Message) bool {
		return m.ReceiverID == localUser && !m.IsRead
	})
}
