package huddle

// ============================================================================
// Shared Types
// ============================================================================

// APIError represents an API error returned by the Huddle backend.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// FieldError is a per-field validation failure. Validation never
// escapes the form boundary as a panic or opaque error; callers get
// the full list and render it inline.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ============================================================================
// Chat Domain Types
// ============================================================================

// User is a roster member. Identity fields are immutable once created;
// IsOnline and LastSeen are owned by the presence tracker.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef,omitempty"`
	ColorTag    string `json:"colorTag,omitempty"`
	IsOnline    bool   `json:"isOnline"`
	// LastSeen is the last-observed timestamp in epoch milliseconds,
	// stamped on every presence update regardless of direction.
	LastSeen int64 `json:"lastSeenEpochMs,omitempty"`
}

// Message is a single chat message. Reactions map an emoji to the set
// of user IDs that reacted with it; an emoji key with no members is
// never kept around.
type Message struct {
	ID             string                     `json:"id"`
	ConversationID string                     `json:"conversationId"`
	SenderID       string                     `json:"senderId"`
	Text           string                     `json:"text"`
	CreatedAt      int64                      `json:"createdAtEpochMs"`
	Reactions      map[string]map[string]bool `json:"reactions,omitempty"`
	ReplyTo        string                     `json:"replyToMessageId,omitempty"`
	Edited         bool                       `json:"edited,omitempty"`
	EditedAt       int64                      `json:"editedAtEpochMs,omitempty"`
}

// ConversationKind distinguishes team channels from direct messages.
type ConversationKind string

const (
	KindTeam          ConversationKind = "team"
	KindDirectMessage ConversationKind = "dm"
)

// Conversation is directory metadata for one conversation. The preview
// fields and UnreadCount are derived from message traffic and always
// move in the same state transition as the message list itself.
type Conversation struct {
	ID                 string           `json:"id"`
	DisplayName        string           `json:"displayName"`
	Kind               ConversationKind `json:"kind"`
	MemberIDs          []string         `json:"memberIds"`
	LastMessagePreview string           `json:"lastMessagePreview,omitempty"`
	LastMessageAt      int64            `json:"lastMessageAtEpochMs,omitempty"`
	UnreadCount        int              `json:"unreadCount"`
}

// HasMember reports whether userID belongs to the conversation.
func (c *Conversation) HasMember(userID string) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// MessageView is a display-ready projection of a message. ReplyPreview
// is the text of the replied-to message when it is locally resolvable,
// or a placeholder when it is not.
type MessageView struct {
	Message
	SenderName   string `json:"senderName,omitempty"`
	ReplyPreview string `json:"replyPreview,omitempty"`
}

// ============================================================================
// Wire Payload Types
// ============================================================================

// SendPayload is the outbound message:send payload. ID is the
// creator-generated message id; the remote adopts it, which is what
// lets receipt-side dedup absorb the echo of a local send.
type SendPayload struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	ReplyTo        string `json:"replyTo,omitempty"`
}

// EditPayload is the outbound message:edit payload.
type EditPayload struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
}

// ReactAction says whether a message:react event adds or removes a
// reaction. The action is explicit on the wire; the remote side never
// has to infer it from current membership.
type ReactAction string

const (
	ReactAdd    ReactAction = "add"
	ReactRemove ReactAction = "remove"
)

// ReactPayload is the message:react payload.
type ReactPayload struct {
	MessageID string      `json:"messageId"`
	Emoji     string      `json:"emoji"`
	UserID    string      `json:"userId"`
	Action    ReactAction `json:"action"`
}

// TypingPayload is the typing:start / typing:stop payload. UserName is
// only present on start.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName,omitempty"`
}

// PresencePayload is the presence:update payload.
type PresencePayload struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}
