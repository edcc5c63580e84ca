package huddle

import (
	"github.com/forPelevin/gomoji"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// ErrInvalidReaction is returned when a reaction is not a single emoji.
var ErrInvalidReaction = errors.New("reaction must be a single emoji")

// ValidateReaction checks that the reaction is exactly one emoji and
// nothing else. FindAll reports distinct emojis, so a repeat of the
// same emoji is caught by requiring the input to be the emoji itself.
func ValidateReaction(reaction string) error {
	if len(gomoji.RemoveEmojis(reaction)) > 0 {
		return ErrInvalidReaction
	}
	found := gomoji.FindAll(reaction)
	if len(found) != 1 || found[0].Character != reaction {
		return ErrInvalidReaction
	}
	return nil
}

// ============================================================================
// Message Operations
// ============================================================================

// SendMessage appends a locally generated message to the conversation
// and updates the directory preview in the same state transition, then
// hands a message:send to the transport. The append is optimistic:
// there is no rollback if the remote leg never happens. The remote
// echo comes back through ReceiveMessage and is absorbed by id dedup.
func (s *ChatStore) SendMessage(conversationID, text, replyTo string) (Message, error) {
	s.mu.Lock()
	if s.currentUser == nil {
		s.mu.Unlock()
		return Message{}, errors.New("no current user set")
	}
	conv, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return Message{}, errors.Errorf("unknown conversation %q", conversationID)
	}

	msg := Message{
		ID:             generateUUID(),
		ConversationID: conversationID,
		SenderID:       s.currentUser.ID,
		Text:           text,
		ReplyTo:        replyTo,
		CreatedAt:      s.now().UnixMilli(),
	}
	stored := msg
	s.messages[conversationID] = append(s.messages[conversationID], &stored)
	conv.LastMessagePreview = text
	conv.LastMessageAt = msg.CreatedAt
	s.mu.Unlock()

	s.emit(EventMessageSend, SendPayload{
		ID:             msg.ID,
		ConversationID: conversationID,
		Text:           text,
		ReplyTo:        replyTo,
	})
	return msg, nil
}

// ReceiveMessage applies an inbound message. Receipt is idempotent: a
// message whose id already exists in the conversation's list is a
// no-op, which covers both echo-back of local sends and at-least-once
// redelivery. A message for an unknown conversation creates a
// placeholder directory entry so unread accounting still holds.
func (s *ChatStore) ReceiveMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.messages[msg.ConversationID] {
		if existing.ID == msg.ID {
			return
		}
	}

	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		conv = &Conversation{ID: msg.ConversationID, Kind: KindTeam}
		s.conversations[msg.ConversationID] = conv
		jww.DEBUG.Printf("store: placeholder conversation %q created on receipt", msg.ConversationID)
	}

	stored := msg
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], &stored)
	conv.LastMessagePreview = msg.Text
	conv.LastMessageAt = msg.CreatedAt
	if s.activeID != msg.ConversationID {
		conv.UnreadCount++
	}
}

// EditMessage rewrites a message's text in place, wherever it lives,
// and emits message:edit.
func (s *ChatStore) EditMessage(messageID, newText string) error {
	s.mu.Lock()
	msg := s.findLocked(messageID)
	if msg == nil {
		s.mu.Unlock()
		return errors.Errorf("message %q not found", messageID)
	}
	msg.Text = newText
	msg.Edited = true
	msg.EditedAt = s.now().UnixMilli()
	s.mu.Unlock()

	s.emit(EventMessageEdit, EditPayload{MessageID: messageID, Text: newText})
	return nil
}

// DeleteMessage removes a message in place and emits message:delete.
func (s *ChatStore) DeleteMessage(messageID string) error {
	s.mu.Lock()
	found := false
	for convID, list := range s.messages {
		for i, m := range list {
			if m.ID == messageID {
				s.messages[convID] = append(list[:i], list[i+1:]...)
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return errors.Errorf("message %q not found", messageID)
	}
	s.emit(EventMessageDelete, messageID)
	return nil
}

// AddReaction adds userID to the reaction set for emoji. Adding an
// already present reaction is a no-op locally but still emits, since
// the wire action is explicit.
func (s *ChatStore) AddReaction(messageID, emoji, userID string) error {
	if err := ValidateReaction(emoji); err != nil {
		return err
	}
	s.mu.Lock()
	msg := s.findLocked(messageID)
	if msg == nil {
		s.mu.Unlock()
		return errors.Errorf("message %q not found", messageID)
	}
	if msg.Reactions == nil {
		msg.Reactions = make(map[string]map[string]bool)
	}
	if msg.Reactions[emoji] == nil {
		msg.Reactions[emoji] = make(map[string]bool)
	}
	msg.Reactions[emoji][userID] = true
	s.mu.Unlock()

	s.emit(EventMessageReact, ReactPayload{
		MessageID: messageID, Emoji: emoji, UserID: userID, Action: ReactAdd,
	})
	return nil
}

// RemoveReaction removes userID from the reaction set for emoji,
// deleting the emoji bucket when its last member leaves.
func (s *ChatStore) RemoveReaction(messageID, emoji, userID string) error {
	s.mu.Lock()
	msg := s.findLocked(messageID)
	if msg == nil {
		s.mu.Unlock()
		return errors.Errorf("message %q not found", messageID)
	}
	if set, ok := msg.Reactions[emoji]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(msg.Reactions, emoji)
		}
		if len(msg.Reactions) == 0 {
			msg.Reactions = nil
		}
	}
	s.mu.Unlock()

	s.emit(EventMessageReact, ReactPayload{
		MessageID: messageID, Emoji: emoji, UserID: userID, Action: ReactRemove,
	})
	return nil
}

// findLocked locates a message by id across every conversation.
// Message ids are unique store-wide. Caller holds s.mu.
func (s *ChatStore) findLocked(messageID string) *Message {
	for _, list := range s.messages {
		for _, m := range list {
			if m.ID == messageID {
				return m
			}
		}
	}
	return nil
}
