package projection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func message(id, sender, receiver, content string) domain.Message {
	return domain.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}
}

func TestConversationLog_AddMessage_Preserves_Arrival_Order(t *testing.T) {
	req := require.New(t)
	log := NewConversationLog()

	log.AddMessage(message("m1", "u1", "u2", "first"))
	log.AddMessage(message("m2", "u2", "u1", "second"))
	log.AddMessage(message("m3", "u1", "u2", "third"))

	messages := log.Messages()
	req.Len(messages, 3)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)
	req.Equal("third", messages[2].Content)
}

func TestConversationLog_MarkMessageAsRead_Mutates_In_Place(t *testing.T) {
	req := require.New(t)
	log := NewConversationLog()
	log.AddMessage(message("m1", "u2", "u1", "hi"))

	log.MarkMessageAsRead("m1")

	req.True(log.Messages()[0].IsRead)
}

func TestConversationLog_MarkMessageAsRead_Unknown_ID_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	log := NewConversationLog()
	log.AddMessage(message("m1", "u2", "u1", "hi"))

	// When marking an id that was never seen
	log.MarkMessageAsRead(uuid.NewString())

	// Then the store is unchanged
	messages := log.Messages()
	req.Len(messages, 1)
	req.False(messages[0].IsRead)
}

func TestConversationLog_ConversationWith_Filters_Both_Directions(t *testing.T) {
	req := require.New(t)
	log := NewConversationLog()
	log.AddMessage(message("m1", "u1", "u2", "to u2"))
	log.AddMessage(message("m2", "u3", "u1", "from u3"))
	log.AddMessage(message("m3", "u2", "u1", "from u2"))
	log.AddMessage(message("m4", "u2", "u3", "someone else's chat"))

	conversation := log.ConversationWith("u1", "u2")

	req.Len(conversation, 2)
	req.Equal("to u2", conversation[0].Content)
	req.Equal("from u2", conversation[1].Content)
}

func TestConversationLog_ActiveConversation_Is_Pure_Selection(t *testing.T) {
	req := require.New(t)
	log := NewConversationLog()
	log.AddMessage(message("m1", "u1", "u2", "hi"))

	req.Empty(log.ActiveConversation())

	log.SetActiveConversation(domain.ConversationID("u1", "u2"))

	req.Equal(domain.ConversationID("u1", "u2"), log.ActiveConversation())
	// Selection does not touch the message log
	req.Len(log.Messages(), 1)

	log.SetActiveConversation(domain.ConversationID("u1", "u3"))
	req.Equal(domain.ConversationID("u1", "u3"), log.ActiveConversation())
}

func TestConversationLog_Peers_In_Order_Of_First_Appearance(t *testing.T) {
	req := require.New(t)
	log := NewConversationLog()
	log.AddMessage(message("m1", "u1", "u2", "a"))
	log.AddMessage(message("m2", "u3", "u1", "b"))
	log.AddMessage(message("m3", "u2", "u1", "c"))

	req.Equal([]string{"u2", "u3"}, log.Peers("u1"))
}

func TestConversationLog_UnreadCount_Counts_Only_Inbound_Unread(t *testing.T) {
	req := require.New(t)
	log := NewConversationLog()
	log.AddMessage(message("m1", "u2", "u1", "unread"))
	log.AddMessage(message("m2", "u1", "u2", "own message"))
	log.AddMessage(message("m3", "u3", "u1", "also unread"))

	req.Equal(2, log.UnreadCount("u1"))

	log.MarkMessageAsRead("m1")

	req.Equal(1, log.UnreadCount("u1"))
}
