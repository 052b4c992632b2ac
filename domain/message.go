// Package domain contains core concepts of the relay.
// This file defines the Message exchanged between users and the
// frames that travel over the wire. Messages are immutable once
// sealed by the server.
package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Message is a fully formed chat message. ID and Timestamp are always
// assigned by the server, never by the sending client, so a single
// authority decides identity and ordering. Timestamps marshal as
// RFC 3339 text, the wire's only time format.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"isRead"`
}

// Draft is the client-to-server frame: a message still lacking the
// server-assigned ID and timestamp.
type Draft struct {
	SenderID   string `json:"senderId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
	IsRead     bool   `json:"isRead"`
}

// Validate checks that the draft carries every required field.
func (d Draft) Validate() error {
	return validate.Struct(d)
}

// Seal promotes the draft to a full Message with the given identity
// and creation instant.
func (d Draft) Seal(id string, at time.Time) Message {
	return Message{
		ID:         id,
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		Content:    d.Content,
		Timestamp:  at,
		IsRead:     d.IsRead,
	}
}

// ErrorFrame is the server's reply to an unprocessable frame.
type ErrorFrame struct {
	Error string `json:"error"`
}

// ConversationID returns the canonical key for the pair of users,
// identical regardless of who is sender and who is receiver.
func ConversationID(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

// Belongs reports whether the message is part of the conversation
// between the two given users, in either direction.
func (m Message) Belongs(localUser, otherParty string) bool {
	return (m.SenderID == localUser && m.ReceiverID == otherParty) ||
		(m.SenderID == otherParty && m.ReceiverID == localUser)
}
