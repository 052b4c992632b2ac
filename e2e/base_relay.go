package e2e

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-relay/domain"
)

const readTimeout = 5 * time.Second

// BaseRelaySuite carries the shared configuration and websocket
// helpers for end-to-end scenarios against a running relay.
type BaseRelaySuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.RelayAddr == "" {
		s.T().Skip("RELAY_ADDR not set, skipping e2e suite")
	}
}

// DialUser opens a registered connection for the given user with
// logging and colors.
func (s *BaseRelaySuite) DialUser(userID string) *websocket.Conn {
	header := fmt.Sprintf("  ====== dialing as %s ======", userID)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	target := fmt.Sprintf("%s?userId=%s", s.Config.RelayAddr, url.QueryEscape(userID))
	conn, resp, err := websocket.DefaultDialer.Dial(target, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	s.Require().NoError(err, "relay unreachable at %s", s.Config.RelayAddr)

	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// ReadMessage reads the next frame and decodes it as a full Message,
// optionally dumping the raw JSON body.
func (s *BaseRelaySuite) ReadMessage(conn *websocket.Conn) domain.Message {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, data, err := conn.ReadMessage()
	s.Require().NoError(err)

	if s.Config.DebugJSON {
		s.T().Logf("frame: %s", string(data))
	}

	var msg domain.Message
	s.Require().NoError(json.Unmarshal(data, &msg))
	return msg
}
