package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/projection"
)

// Exit codes for the chat client.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	RelayURL             string        `env:"RELAY_URL,default=ws://localhost:3001/ws"`
	UserID               string        `env:"CHAT_USER_ID,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=WARN"`
	ReconnectDelay       time.Duration `env:"RECONNECT_DELAY,default=3s"`
	MaxReconnectAttempts int           `env:"MAX_RECONNECT_ATTEMPTS,default=5"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat error: %v\n", err)
	}
	os.Exit(code)
}

// consoleSink stores every delivered message and renders it for the
// terminal. Messages of the active conversation are marked as read on
// arrival, the way an open chat window consumes them.
type consoleSink struct {
	store  *projection.ConversationLog
	userID string
}

func (c *consoleSink) AddMessage(msg domain.Message) {
	c.store.AddMessage(msg)

	if msg.SenderID == c.userID {
		// Echo of our own send: the relay confirmed delivery with the
		// authoritative id and timestamp.
		color.Green.Printf("[%s] me -> %s: %s\n",
			msg.Timestamp.Local().Format(time.TimeOnly), msg.ReceiverID, msg.Content)
		return
	}

	if c.store.ActiveConversation() == domain.ConversationID(c.userID, msg.SenderID) {
		c.store.MarkMessageAsRead(msg.ID)
	}
	color.Cyan.Printf("[%s] %s: %s\n",
		msg.Timestamp.Local().Format(time.TimeOnly), msg.SenderID, msg.Content)
}

// run handles the connection lifecycle, configuration loading, and the
// interactive prompt loop.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Local state and the connection manager. One explicit instance
	// of each for the whole program, wired together here.
	store := projection.NewConversationLog()
	sink := &consoleSink{store: store, userID: config.UserID}

	manager := client.NewManager(log, client.Config{
		Endpoint:             config.RelayURL,
		ReconnectDelay:       config.ReconnectDelay,
		MaxReconnectAttempts: config.MaxReconnectAttempts,
		OnStateChange: func(s client.State) {
			color.Gray.Printf("* connection %s\n", s)
		},
	}, sink)

	if err := manager.Connect(ctx, config.UserID); err != nil {
		// The manager keeps retrying on its own; surface the failure
		// but keep the prompt alive.
		color.Red.Printf("! initial connection failed: %v\n", err)
	}
	defer manager.Disconnect()

	color.Green.Printf(">>> Chatting as %s via %s (Ctrl+C to quit)\n", config.UserID, config.RelayURL)
	fmt.Println("Commands: /to <user>, /list, /quit. Anything else is sent to the active peer.")

	// 4. Prompt loop. Stdin lines are read on a goroutine so a signal
	// can still interrupt the wait.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var activePeer string
	for {
		select {
		case <-ctx.Done():
			fmt.Println("Leaving chat...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			switch {
			case line == "/quit":
				return exitOK, nil
			case line == "/list":
				printConversations(store, config.UserID)
			case strings.HasPrefix(line, "/to "):
				activePeer = strings.TrimSpace(strings.TrimPrefix(line, "/to "))
				store.SetActiveConversation(domain.ConversationID(config.UserID, activePeer))
				replayConversation(store, config.UserID, activePeer)
			case strings.TrimSpace(line) == "":
				// skip
			case activePeer == "":
				color.Yellow.Println("! no active peer, use /to <user> first")
			default:
				err := manager.SendMessage(domain.Draft{
					SenderID:   config.UserID,
					ReceiverID: activePeer,
					Content:    line,
				})
				if err != nil {
					color.Red.Printf("! not sent: %v\n", err)
				}
			}
		}
	}
}

// printConversations renders one row per peer with message and unread
// counts.
func printConversations(store *projection.ConversationLog, userID string) {
	peers := store.Peers(userID)
	if len(peers) == 0 {
		fmt.Println("No conversations yet.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Peer", "Messages", "Unread", "Last message"})
	for _, peer := range peers {
		msgs := store.ConversationWith(userID, peer)
		unread := lo.CountBy(msgs, func(m domain.Message) bool {
			return m.ReceiverID == userID && !m.IsRead
		})
		last := msgs[len(msgs)-1]
		table.Append([]string{
			peer,
			fmt.Sprintf("%d", len(msgs)),
			fmt.Sprintf("%d", unread),
			last.Content,
		})
	}
	table.Render()
}

// replayConversation prints the selected conversation's history in log
// order and consumes its unread messages.
func replayConversation(store *projection.ConversationLog, userID, peer string) {
	for _, msg := range store.ConversationWith(userID, peer) {
		who := msg.SenderID
		if msg.SenderID == userID {
			who = "me"
		}
		fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Local().Format(time.TimeOnly), who, msg.Content)
		if msg.ReceiverID == userID && !msg.IsRead {
			store.MarkMessageAsRead(msg.ID)
		}
	}
}
