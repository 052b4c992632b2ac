package relay

import (
	"sync"

	"chat-relay/contract"
)

// Registry maps a user identifier to its live transport handle.
// At most one handle per user: a new connection for the same user
// replaces the previous one.
type Registry struct {
	mu      sync.RWMutex
	Clients map[string]contract.Handle
}

func NewRegistry() *Registry {
	return &Registry{
		Clients: make(map[string]contract.Handle),
	}
}

// Register inserts or replaces the mapping for userID and returns the
// superseded handle so the caller can shut it down. The superseded
// handle stops being addressable the moment this returns.
func (r *Registry) Register(userID string, h contract.Handle) contract.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.Clients[userID]
	r.Clients[userID] = h
	return prev
}

// Lookup resolves the current handle for a user. The second return
// value is false when the user is offline.
func (r *Registry) Lookup(userID string) (contract.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.Clients[userID]
	return h, ok
}

// Remove deletes the mapping for userID, but only while it still
// points at h. A connection that was already replaced must not evict
// its replacement when its deferred cleanup finally runs.
func (r *Registry) Remove(userID string, h contract.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.Clients[userID]; ok && current == h {
		delete(r.Clients, userID)
	}
}

// Count returns the number of connected users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients)
}
