//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
)

// Handle is an open, addressable transport connection to one client.
// Implementations must be safe for concurrent writers.
type Handle interface {
	// WriteJSON sends a single JSON text frame.
	WriteJSON(v any) error

	// Shutdown sends a close frame carrying the reason, then closes
	// the underlying transport. Safe to call more than once.
	Shutdown(reason string) error
}

// IRegistry tracks exactly one live handle per connected user.
type IRegistry interface {
	// Register inserts or replaces the mapping and returns the
	// superseded handle, nil if the user was not connected.
	Register(userID string, h Handle) Handle

	// Lookup finds the forwarding target for a user. Absence means
	// "recipient offline" and is not an error.
	Lookup(userID string) (Handle, bool)

	// Remove deletes the mapping, but only while it still points at
	// the given handle. Idempotent.
	Remove(userID string, h Handle)
}

// MessageSink receives messages delivered by the client connection
// manager, decoupling it from whatever holds local state.
type MessageSink interface {
	AddMessage(msg domain.Message)
}
