package e2e

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-relay/domain"
)

type RelayScenarioSuite struct {
	BaseRelaySuite
}

func TestRelayScenarios(t *testing.T) {
	suite.Run(t, new(RelayScenarioSuite))
}

// Two users connect, one sends: the receiver gets exactly the sealed
// message and the sender gets an identical echo.
func (s *RelayScenarioSuite) Test_Forward_And_Echo() {
	sender := uuid.NewString()
	receiver := uuid.NewString()

	senderConn := s.DialUser(sender)
	receiverConn := s.DialUser(receiver)

	draft := domain.Draft{SenderID: sender, ReceiverID: receiver, Content: "hi"}
	s.Require().NoError(senderConn.WriteJSON(draft))

	delivered := s.ReadMessage(receiverConn)
	echo := s.ReadMessage(senderConn)

	s.Require().NotEmpty(delivered.ID)
	s.Require().Equal(sender, delivered.SenderID)
	s.Require().Equal(receiver, delivered.ReceiverID)
	s.Require().Equal("hi", delivered.Content)
	s.Require().False(delivered.IsRead)
	s.Require().Equal(delivered, echo)
}

// The receiver goes away: the sender still gets its echo, nobody else
// gets anything.
func (s *RelayScenarioSuite) Test_Offline_Receiver_Still_Echoes() {
	sender := uuid.NewString()
	receiver := uuid.NewString()

	senderConn := s.DialUser(sender)
	receiverConn := s.DialUser(receiver)
	s.Require().NoError(receiverConn.Close())

	// Give the relay a moment to unregister the closed connection.
	time.Sleep(200 * time.Millisecond)

	draft := domain.Draft{SenderID: sender, ReceiverID: receiver, Content: "anyone there?"}
	s.Require().NoError(senderConn.WriteJSON(draft))

	echo := s.ReadMessage(senderConn)
	s.Require().Equal("anyone there?", echo.Content)
	s.Require().NotEmpty(echo.ID)
}

// A frame that is not valid JSON earns an error reply and the
// connection survives for the next attempt.
func (s *RelayScenarioSuite) Test_Malformed_Frame_Keeps_Connection_Open() {
	sender := uuid.NewString()
	senderConn := s.DialUser(sender)

	s.Require().NoError(senderConn.WriteMessage(websocket.TextMessage, []byte("not json")))

	s.Require().NoError(senderConn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, data, err := senderConn.ReadMessage()
	s.Require().NoError(err)

	var frame domain.ErrorFrame
	s.Require().NoError(json.Unmarshal(data, &frame))
	s.Require().NotEmpty(frame.Error)

	// Connection still usable.
	draft := domain.Draft{SenderID: sender, ReceiverID: uuid.NewString(), Content: "still here"}
	s.Require().NoError(senderConn.WriteJSON(draft))
	echo := s.ReadMessage(senderConn)
	s.Require().Equal("still here", echo.Content)
}
