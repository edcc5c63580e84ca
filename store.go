package huddle

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// ============================================================================
// ChatStore
// ============================================================================

// ChatStore is the client-side conversational state container: ordered
// per-conversation message lists, the conversation directory, the
// roster with presence, and the typing tracker. It is an explicitly
// constructed value with an Attach/Close lifecycle — nothing is
// initialized at package load.
//
// Message lists and conversation metadata (preview, unread count) are
// guarded by one mutex so they always change in a single state
// transition. Optimistic local writes are fire-and-forget: the store
// mutates first, then hands the event to the transport without
// awaiting acknowledgement, and receipt-side dedup by message id
// absorbs the echo.
type ChatStore struct {
	mu sync.Mutex

	currentUser   *User
	users         map[string]*User
	conversations map[string]*Conversation
	messages      map[string][]*Message
	activeID      string

	transport Transport
	subs      []subscription
	closed    bool

	typing *TypingTracker
	now    func() time.Time
}

type subscription struct {
	event string
	id    HandlerID
}

// StoreOption configures a ChatStore.
type StoreOption func(*ChatStore)

// WithClock overrides the store's time source. Tests use this to make
// staleness and timestamps deterministic.
func WithClock(now func() time.Time) StoreOption {
	return func(s *ChatStore) {
		s.now = now
		s.typing.now = now
	}
}

// NewChatStore creates an empty, detached store.
func NewChatStore(opts ...StoreOption) *ChatStore {
	s := &ChatStore{
		users:         make(map[string]*User),
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]*Message),
		now:           time.Now,
	}
	s.typing = NewTypingTracker(time.Now)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ── Identity & seeding ───────────────────────────────────

// SetCurrentUser sets the local identity required for sending.
func (s *ChatStore) SetCurrentUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = &u
	s.users[u.ID] = &u
}

// CurrentUser returns the local identity, if set.
func (s *ChatStore) CurrentUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentUser == nil {
		return User{}, false
	}
	return *s.currentUser, true
}

// SeedUsers loads the startup roster.
func (s *ChatStore) SeedUsers(users []User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
}

// SeedConversations loads the startup conversation directory.
func (s *ChatStore) SeedConversations(convs []Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range convs {
		c := convs[i]
		s.conversations[c.ID] = &c
		if _, ok := s.messages[c.ID]; !ok {
			s.messages[c.ID] = nil
		}
	}
}

// Typing exposes the typing tracker.
func (s *ChatStore) Typing() *TypingTracker {
	return s.typing
}

// ── Lifecycle ────────────────────────────────────────────

// Attach subscribes the store to a transport's inbound events and
// routes subsequent local writes through it. A store attaches to at
// most one transport at a time.
func (s *ChatStore) Attach(t Transport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport != nil {
		return errors.New("store already attached to a transport")
	}
	s.transport = t
	s.closed = false

	sub := func(event string, h Handler) {
		s.subs = append(s.subs, subscription{event, t.On(event, h)})
	}
	sub(EventMessageReceive, s.onMessageReceive)
	sub(EventTypingStart, s.onTypingStart)
	sub(EventTypingStop, s.onTypingStop)
	sub(EventPresenceUpdate, s.onPresenceUpdate)
	sub(EventConvCreate, s.onConversationUpsert)
	sub(EventConvUpdate, s.onConversationUpsert)
	return nil
}

// Close unsubscribes from the transport. The store's data remains
// readable; only the live wiring is released. Idempotent.
func (s *ChatStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.transport == nil {
		s.closed = true
		return
	}
	for _, sub := range s.subs {
		s.transport.Off(sub.event, sub.id)
	}
	s.subs = nil
	s.transport = nil
	s.closed = true
}

// ── Inbound handlers ─────────────────────────────────────

func (s *ChatStore) onMessageReceive(payload json.RawMessage) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		jww.WARN.Printf("store: malformed message:receive payload: %v", err)
		return
	}
	s.ReceiveMessage(msg)
}

func (s *ChatStore) onTypingStart(payload json.RawMessage) {
	var p TypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		jww.WARN.Printf("store: malformed typing:start payload: %v", err)
		return
	}
	s.typing.Start(p.ConversationID, p.UserID, p.UserName)
}

func (s *ChatStore) onTypingStop(payload json.RawMessage) {
	var p TypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		jww.WARN.Printf("store: malformed typing:stop payload: %v", err)
		return
	}
	s.typing.Stop(p.ConversationID, p.UserID)
}

func (s *ChatStore) onPresenceUpdate(payload json.RawMessage) {
	var p PresencePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		jww.WARN.Printf("store: malformed presence:update payload: %v", err)
		return
	}
	s.ApplyPresence(p)
}

func (s *ChatStore) onConversationUpsert(payload json.RawMessage) {
	var c Conversation
	if err := json.Unmarshal(payload, &c); err != nil {
		jww.WARN.Printf("store: malformed conversation payload: %v", err)
		return
	}
	s.applyConversationUpdate(c)
}

// emit routes an outbound event to the attached transport, if any.
// Failures are logged and otherwise ignored: the optimistic local
// mutation has already happened and there is no rollback path.
func (s *ChatStore) emit(event string, payload any) {
	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()
	if t == nil {
		return
	}
	if err := t.Emit(event, payload); err != nil {
		jww.WARN.Printf("store: emit %q failed: %v", event, err)
	}
}

// ── Helpers ──────────────────────────────────────────────

func generateUUID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().UnixMilli())
	}
	b[6] = (b[6] & 0x0f) | 0x40 // Version 4
	b[8] = (b[8] & 0x3f) | 0x80 // Variant 10
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
