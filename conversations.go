package huddle

import (
	"sort"

	"github.com/pkg/errors"
)

// ============================================================================
// Conversation Directory
// ============================================================================

// CreateConversation adds a conversation to the directory, emits
// conversation:create, and returns its id synchronously so the caller
// can navigate straight to it. A direct-message conversation has
// exactly two members, fixed at creation.
func (s *ChatStore) CreateConversation(c Conversation) (string, error) {
	if c.Kind == "" {
		c.Kind = KindTeam
	}
	if c.Kind == KindDirectMessage && len(c.MemberIDs) != 2 {
		return "", errors.Errorf("direct conversation needs exactly 2 members, got %d", len(c.MemberIDs))
	}
	if c.ID == "" {
		c.ID = generateUUID()
	}
	c.UnreadCount = 0

	s.mu.Lock()
	if _, exists := s.conversations[c.ID]; exists {
		s.mu.Unlock()
		return "", errors.Errorf("conversation %q already exists", c.ID)
	}
	stored := c
	s.conversations[c.ID] = &stored
	s.messages[c.ID] = nil
	s.mu.Unlock()

	s.emit(EventConvCreate, c)
	return c.ID, nil
}

// MarkAsRead zeroes the conversation's unread count.
func (s *ChatStore) MarkAsRead(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[conversationID]; ok {
		conv.UnreadCount = 0
	}
}

// SetActiveConversation switches the active pointer. A non-empty id
// marks that conversation read as a side effect; the active
// conversation's unread count is pinned to zero by definition. An
// empty id clears the pointer.
func (s *ChatStore) SetActiveConversation(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conversationID == "" {
		s.activeID = ""
		return nil
	}
	conv, ok := s.conversations[conversationID]
	if !ok {
		return errors.Errorf("unknown conversation %q", conversationID)
	}
	s.activeID = conversationID
	conv.UnreadCount = 0
	return nil
}

// Conversation returns a copy of one directory entry.
func (s *ChatStore) Conversation(conversationID string) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return Conversation{}, false
	}
	return *conv, true
}

// Conversations lists the directory, most recently active first.
func (s *ChatStore) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastMessageAt != out[j].LastMessageAt {
			return out[i].LastMessageAt > out[j].LastMessageAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// applyConversationUpdate merges an inbound conversation:create or
// conversation:update. Identity metadata follows the wire; the locally
// derived preview and unread count are never overwritten by a remote
// directory event.
func (s *ChatStore) applyConversationUpdate(c Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.conversations[c.ID]
	if !ok {
		stored := c
		stored.UnreadCount = 0
		s.conversations[c.ID] = &stored
		if _, seen := s.messages[c.ID]; !seen {
			s.messages[c.ID] = nil
		}
		return
	}
	if c.DisplayName != "" {
		existing.DisplayName = c.DisplayName
	}
	if c.Kind != "" {
		existing.Kind = c.Kind
	}
	if len(c.MemberIDs) > 0 {
		existing.MemberIDs = c.MemberIDs
	}
}
