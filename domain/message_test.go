package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDraft_Validate_Requires_All_Fields(t *testing.T) {
	req := require.New(t)

	req.NoError(Draft{SenderID: "u1", ReceiverID: "u2", Content: "hi"}.Validate())

	req.Error(Draft{ReceiverID: "u2", Content: "hi"}.Validate())
	req.Error(Draft{SenderID: "u1", Content: "hi"}.Validate())
	req.Error(Draft{SenderID: "u1", ReceiverID: "u2"}.Validate())
}

func TestDraft_Seal_Assigns_Identity_And_Instant(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	// Given a draft lacking id and timestamp
	draft := Draft{SenderID: "u1", ReceiverID: "u2", Content: "hi"}

	// When the server seals it
	msg := draft.Seal("msg-1", at)

	// Then the message carries the server-assigned fields
	req.Equal("msg-1", msg.ID)
	req.Equal(at, msg.Timestamp)
	req.Equal("u1", msg.SenderID)
	req.Equal("u2", msg.ReceiverID)
	req.Equal("hi", msg.Content)
	req.False(msg.IsRead)
}

func TestMessage_Wire_Format(t *testing.T) {
	req := require.New(t)
	msg := Message{
		ID:         "msg-1",
		SenderID:   "u1",
		ReceiverID: "u2",
		Content:    "hi",
		Timestamp:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	data, err := json.Marshal(msg)
	req.NoError(err)

	// Field names and the RFC 3339 timestamp are the wire contract.
	req.JSONEq(`{
		"id": "msg-1",
		"senderId": "u1",
		"receiverId": "u2",
		"content": "hi",
		"timestamp": "2026-03-14T09:26:53Z",
		"isRead": false
	}`, string(data))
}

func TestConversationID_Is_Order_Independent(t *testing.T) {
	require.Equal(t, ConversationID("u1", "u2"), ConversationID("u2", "u1"))
	require.NotEqual(t, ConversationID("u1", "u2"), ConversationID("u1", "u3"))
}

func TestMessage_Belongs_Matches_Both_Directions(t *testing.T) {
	req := require.New(t)
	msg := Message{SenderID: "u1", ReceiverID: "u2"}

	req.True(msg.Belongs("u1", "u2"))
	req.True(msg.Belongs("u2", "u1"))
	req.False(msg.Belongs("u1", "u3"))
	req.False(msg.Belongs("u3", "u2"))
}
