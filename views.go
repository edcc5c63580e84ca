package huddle

import "sort"

// replyPlaceholder stands in for a replied-to message that is not
// locally resolvable (deleted, or never received).
const replyPlaceholder = "Original message unavailable"

// ============================================================================
// View Projections
// ============================================================================
//
// Read-only derived views for the UI layer. These copy state out under
// the lock and never mutate anything.

// UnreadTotal sums the unread counts of every conversation.
func (s *ChatStore) UnreadTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, c := range s.conversations {
		total += c.UnreadCount
	}
	return total
}

// ActiveConversation returns the conversation the active pointer
// refers to, if any.
func (s *ChatStore) ActiveConversation() (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return Conversation{}, false
	}
	conv, ok := s.conversations[s.activeID]
	if !ok {
		return Conversation{}, false
	}
	return *conv, true
}

// MessagesFor returns the display view of a conversation: messages
// sorted by creation time, sender names resolved from the roster, and
// reply references resolved to the original text or a placeholder.
func (s *ChatStore) MessagesFor(conversationID string) []MessageView {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[conversationID]
	byID := make(map[string]*Message, len(list))
	for _, m := range list {
		byID[m.ID] = m
	}

	views := make([]MessageView, 0, len(list))
	for _, m := range list {
		v := MessageView{Message: *m}
		if u, ok := s.users[m.SenderID]; ok {
			v.SenderName = u.DisplayName
		}
		if m.ReplyTo != "" {
			if original, ok := byID[m.ReplyTo]; ok {
				v.ReplyPreview = original.Text
			} else {
				v.ReplyPreview = replyPlaceholder
			}
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt < views[j].CreatedAt
	})
	return views
}

// TypingLabel renders the typing-indicator line for a conversation
// from the viewer's perspective (the current user never sees their own
// typing state).
func (s *ChatStore) TypingLabel(conversationID string) string {
	s.mu.Lock()
	viewerID := ""
	if s.currentUser != nil {
		viewerID = s.currentUser.ID
	}
	s.mu.Unlock()
	return FormatTypingLabel(s.typing.TypingUsers(conversationID, viewerID))
}
