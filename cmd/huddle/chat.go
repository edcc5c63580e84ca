package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	huddle "github.com/huddle-chat/huddle/sdk/golang"
	"github.com/spf13/cobra"
)

// ============================================================================
// Flag variables
// ============================================================================

var (
	chatWatchFor    time.Duration
	chatCaptureFor  time.Duration
	chatSendReplyTo string
)

// Demo roster used when the simulated transport generates traffic.
var demoRoster = []huddle.User{
	{ID: "u-coach", DisplayName: "Coach Dana", ColorTag: "red"},
	{ID: "u-alex", DisplayName: "Alex", ColorTag: "blue"},
	{ID: "u-sam", DisplayName: "Sam", ColorTag: "green"},
	{ID: "u-riley", DisplayName: "Riley", ColorTag: "orange"},
}

var demoConversations = []huddle.Conversation{
	{ID: "c-team", DisplayName: "Thunder FC", Kind: huddle.KindTeam,
		MemberIDs: []string{"u-coach", "u-alex", "u-sam", "u-riley"}},
	{ID: "c-carpool", DisplayName: "Carpool", Kind: huddle.KindTeam,
		MemberIDs: []string{"u-alex", "u-sam", "u-riley"}},
}

func init() {
	chatWatchCmd.Flags().DurationVar(&chatWatchFor, "for", 0, "stop after this duration (default: until interrupt)")
	chatConversationsCmd.Flags().DurationVar(&chatCaptureFor, "capture", 10*time.Second, "how long to capture traffic before listing")
	chatSearchCmd.Flags().DurationVar(&chatCaptureFor, "capture", 10*time.Second, "how long to capture traffic before searching")
	chatSendCmd.Flags().StringVar(&chatSendReplyTo, "reply-to", "", "message id to reply to")

	chatCmd.AddCommand(chatWatchCmd)
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatConversationsCmd)
	chatCmd.AddCommand(chatSearchCmd)
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Watch and send conversation traffic",
}

// openSession builds the store, seeds the demo directory, attaches the
// configured transport, and connects. The returned cleanup function
// disconnects and detaches.
func openSession(cfg *Config) (*huddle.ChatStore, huddle.Transport, func(), error) {
	self := currentUser(cfg)

	store := huddle.NewChatStore()
	store.SetCurrentUser(self)
	store.SeedUsers(demoRoster)
	store.SeedConversations(demoConversations)

	convIDs := make([]string, 0, len(demoConversations))
	for _, c := range demoConversations {
		convIDs = append(convIDs, c.ID)
	}

	transport := buildTransport(cfg, self, demoRoster, convIDs)
	if err := store.Attach(transport); err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := transport.Connect(ctx); err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("connect failed: %w", err)
	}

	cleanup := func() {
		if err := transport.Disconnect(); err != nil {
			fmt.Fprintf(os.Stderr, "disconnect: %v\n", err)
		}
		store.Close()
	}
	return store, transport, cleanup, nil
}

var chatWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live conversation events to the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, transport, cleanup, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		// Printer handlers run after the store's own handlers, so the
		// projections they read are already up to date.
		transport.On(huddle.EventMessageReceive, func(payload json.RawMessage) {
			var msg huddle.Message
			if json.Unmarshal(payload, &msg) != nil {
				return
			}
			name := msg.SenderID
			if u, ok := store.UserByID(msg.SenderID); ok && u.DisplayName != "" {
				name = u.DisplayName
			}
			conv := msg.ConversationID
			if c, ok := store.Conversation(msg.ConversationID); ok && c.DisplayName != "" {
				conv = c.DisplayName
			}
			fmt.Printf("[%s] %s: %s  (unread total: %d)\n", conv, name, msg.Text, store.UnreadTotal())
		})
		transport.On(huddle.EventTypingStart, func(payload json.RawMessage) {
			var p huddle.TypingPayload
			if json.Unmarshal(payload, &p) != nil {
				return
			}
			if label := store.TypingLabel(p.ConversationID); label != "" {
				fmt.Printf("… %s\n", label)
			}
		})
		transport.On(huddle.EventPresenceUpdate, func(payload json.RawMessage) {
			var p huddle.PresencePayload
			if json.Unmarshal(payload, &p) != nil {
				return
			}
			state := "offline"
			if p.IsOnline {
				state = "online"
			}
			name := p.UserID
			if u, ok := store.UserByID(p.UserID); ok && u.DisplayName != "" {
				name = u.DisplayName
			}
			fmt.Printf("* %s is now %s\n", name, state)
		})
		transport.On(huddle.EventDisconnect, func(json.RawMessage) {
			fmt.Println("* disconnected")
		})

		fmt.Println("Watching. Press Ctrl-C to stop.")

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
		if chatWatchFor > 0 {
			select {
			case <-interrupt:
			case <-time.After(chatWatchFor):
			}
		} else {
			<-interrupt
		}
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <conversation-id> <text>",
	Short: "Send a message into a conversation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID, text := args[0], args[1]

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, _, cleanup, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		msg, err := store.SendMessage(conversationID, text, chatSendReplyTo)
		if err != nil {
			return fmt.Errorf("send failed: %w", err)
		}

		// Give the fire-and-forget echo a moment to come back; the
		// store dedups it either way.
		time.Sleep(500 * time.Millisecond)

		fmt.Printf("Sent %s\n", msg.ID)
		if conv, ok := store.Conversation(conversationID); ok {
			fmt.Printf("  Preview: %s\n", conv.LastMessagePreview)
		}
		fmt.Printf("  Messages in conversation: %d\n", len(store.MessagesFor(conversationID)))
		return nil
	},
}

var chatConversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Capture traffic briefly, then list the conversation directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, _, cleanup, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		time.Sleep(chatCaptureFor)

		self, _ := store.CurrentUser()
		for _, c := range store.Conversations() {
			// Conversations the local user belongs to get a marker.
			marker := " "
			if c.HasMember(self.ID) {
				marker = "*"
			}
			fmt.Printf("%s %-12s %-14s unread=%d", marker, c.ID, c.DisplayName, c.UnreadCount)
			if c.LastMessagePreview != "" {
				fmt.Printf("  last: %s", c.LastMessagePreview)
			}
			fmt.Println()
		}
		fmt.Printf("Unread total: %d\n", store.UnreadTotal())

		if online := store.OnlineUsers(); len(online) > 0 {
			names := make([]string, 0, len(online))
			for _, u := range online {
				names = append(names, valueOrDefault(u.DisplayName, u.ID))
			}
			fmt.Printf("Online: %s\n", strings.Join(names, ", "))
		}
		return nil
	},
}

var chatSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Capture traffic briefly, then search message text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, _, cleanup, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		time.Sleep(chatCaptureFor)

		results := store.SearchMessages(query)
		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, m := range results {
			fmt.Printf("[%s] %s: %s\n",
				time.UnixMilli(m.CreatedAt).Format(time.RFC3339), m.SenderID, m.Text)
		}
		return nil
	},
}
