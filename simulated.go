package huddle

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	jww "github.com/spf13/jwalterweatherman"
)

// ============================================================================
// Simulator Configuration
// ============================================================================

// IntervalBounds is a half-open [Min, Max) range for a randomized
// repeating delay.
type IntervalBounds struct {
	Min time.Duration
	Max time.Duration
}

func (b IntervalBounds) pick(rnd *rand.Rand) time.Duration {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + time.Duration(rnd.Int63n(int64(b.Max-b.Min)))
}

// SimulatorConfig configures the synthetic traffic of a
// SimulatedTransport.
type SimulatorConfig struct {
	// Users is the roster the simulator generates traffic for.
	Users []User
	// ConversationIDs are the conversations synthetic messages and
	// typing pulses land in.
	ConversationIDs []string
	// SelfUser is the local identity; echoed sends are attributed to
	// it and it never appears as a synthetic sender.
	SelfUser User

	MessageInterval  IntervalBounds // synthetic message cadence
	TypingInterval   IntervalBounds // typing pulse cadence
	TypingDuration   IntervalBounds // delay before the pulse's auto-stop
	PresenceInterval IntervalBounds // presence flip cadence
	OnlineBias       float64        // probability a flip lands online
	EchoDelay        time.Duration  // delay before echoing a local send

	// Rand drives all randomized behavior. Defaults to a time-seeded
	// source; tests inject a fixed seed.
	Rand *rand.Rand
}

func (c *SimulatorConfig) defaults() {
	if c.MessageInterval == (IntervalBounds{}) {
		c.MessageInterval = IntervalBounds{5 * time.Second, 15 * time.Second}
	}
	if c.TypingInterval == (IntervalBounds{}) {
		c.TypingInterval = IntervalBounds{10 * time.Second, 25 * time.Second}
	}
	if c.TypingDuration == (IntervalBounds{}) {
		c.TypingDuration = IntervalBounds{2 * time.Second, 5 * time.Second}
	}
	if c.PresenceInterval == (IntervalBounds{}) {
		c.PresenceInterval = IntervalBounds{15 * time.Second, 35 * time.Second}
	}
	if c.OnlineBias == 0 {
		c.OnlineBias = 0.7
	}
	if c.EchoDelay == 0 {
		c.EchoDelay = 150 * time.Millisecond
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

var cannedMessages = []string{
	"Anyone up for pizza after practice?",
	"Don't forget shin guards tomorrow",
	"Great game everyone!",
	"Who's driving to the away match?",
	"Training moved to 7pm",
	"Can someone bring the cones?",
	"I'll be 10 minutes late",
	"Coach says bring both jerseys",
	"Field 3 is waterlogged, we're on field 5",
	"Team photo on Saturday, wear the home kit",
	"Who is on snack duty this week?",
	"Nice assist today!",
	"Physio says I'm cleared to play",
	"Carpool leaves at 8 sharp",
	"Watch the game film before Thursday",
}

// ============================================================================
// SimulatedTransport
// ============================================================================

// SimulatedTransport is a self-contained Transport that generates
// inbound traffic locally: periodic synthetic messages, typing pulses
// with auto-stop, and presence flips, all at randomized intervals
// within fixed bounds. Local message sends are echoed back as
// message:receive events with the same id. Disconnecting stops every
// internal timer.
type SimulatedTransport struct {
	registry *handlerRegistry
	cfg      SimulatorConfig

	mu        sync.Mutex
	connected bool
	stopCh    chan struct{}
	wg        sync.WaitGroup

	rndMu sync.Mutex
	rnd   *rand.Rand

	now func() time.Time
}

var _ Transport = (*SimulatedTransport)(nil)

// NewSimulatedTransport creates a disconnected simulated transport.
func NewSimulatedTransport(cfg SimulatorConfig) *SimulatedTransport {
	cfg.defaults()
	return &SimulatedTransport{
		registry: newHandlerRegistry(),
		cfg:      cfg,
		rnd:      cfg.Rand,
		now:      time.Now,
	}
}

// Connect starts the synthetic event generators. Connecting twice is a
// no-op.
func (s *SimulatedTransport) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	s.wg.Add(3)
	go s.messageLoop(stop)
	go s.typingLoop(stop)
	go s.presenceLoop(stop)

	s.registry.dispatch(EventConnect, nil)
	return nil
}

// Disconnect stops all generator timers and waits for them to exit.
func (s *SimulatedTransport) Disconnect() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.registry.dispatch(EventDisconnect, nil)
	return nil
}

// IsConnected reports the connection state.
func (s *SimulatedTransport) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// On registers a handler for an event.
func (s *SimulatedTransport) On(event string, h Handler) HandlerID {
	return s.registry.on(event, h)
}

// Off removes handler registrations; with no ids it clears the event.
func (s *SimulatedTransport) Off(event string, ids ...HandlerID) {
	s.registry.off(event, ids...)
}

// Emit accepts an outbound event. A message:send is echoed back after
// EchoDelay as a message:receive carrying the same message id; all
// other outbound events are dropped the way a fire-and-forget remote
// would absorb them. Emitting while disconnected is a silent no-op.
func (s *SimulatedTransport) Emit(event string, payload any) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		jww.DEBUG.Printf("simulated transport: dropping %q emit while disconnected", event)
		return nil
	}
	if event != EventMessageSend {
		s.mu.Unlock()
		return nil
	}
	var p SendPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		s.mu.Unlock()
		jww.WARN.Printf("simulated transport: bad message:send payload: %v", err)
		return nil
	}
	// The Add happens under the same lock that guards connected, so it
	// cannot interleave with Disconnect's Wait.
	stop := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()

	go s.echoSend(stop, p)
	return nil
}

// echoSend replays a local send as an inbound receipt, preserving the
// message id so receipt-side dedup is exercised.
func (s *SimulatedTransport) echoSend(stop chan struct{}, p SendPayload) {
	defer s.wg.Done()
	select {
	case <-stop:
		return
	case <-time.After(s.cfg.EchoDelay):
	}

	echo := Message{
		ID:             p.ID,
		ConversationID: p.ConversationID,
		SenderID:       s.cfg.SelfUser.ID,
		Text:           p.Text,
		ReplyTo:        p.ReplyTo,
		CreatedAt:      s.now().UnixMilli(),
	}
	s.dispatchJSON(EventMessageReceive, echo)
}

// ── Generators ───────────────────────────────────────────

func (s *SimulatedTransport) messageLoop(stop chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stop:
			return
		case <-time.After(s.interval(s.cfg.MessageInterval)):
		}

		user, ok := s.randomRemoteUser()
		convID, okConv := s.randomConversation()
		if !ok || !okConv {
			continue
		}
		msg := Message{
			ID:             generateUUID(),
			ConversationID: convID,
			SenderID:       user.ID,
			Text:           cannedMessages[s.intn(len(cannedMessages))],
			CreatedAt:      s.now().UnixMilli(),
		}
		s.dispatchJSON(EventMessageReceive, msg)
	}
}

func (s *SimulatedTransport) typingLoop(stop chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stop:
			return
		case <-time.After(s.interval(s.cfg.TypingInterval)):
		}

		user, ok := s.randomRemoteUser()
		convID, okConv := s.randomConversation()
		if !ok || !okConv {
			continue
		}
		s.dispatchJSON(EventTypingStart, TypingPayload{
			ConversationID: convID,
			UserID:         user.ID,
			UserName:       user.DisplayName,
		})

		// Auto-stop after a short randomized delay.
		select {
		case <-stop:
			return
		case <-time.After(s.interval(s.cfg.TypingDuration)):
		}
		s.dispatchJSON(EventTypingStop, TypingPayload{
			ConversationID: convID,
			UserID:         user.ID,
		})
	}
}

func (s *SimulatedTransport) presenceLoop(stop chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stop:
			return
		case <-time.After(s.interval(s.cfg.PresenceInterval)):
		}

		user, ok := s.randomRemoteUser()
		if !ok {
			continue
		}
		s.dispatchJSON(EventPresenceUpdate, PresencePayload{
			UserID:   user.ID,
			IsOnline: s.float64() < s.cfg.OnlineBias,
		})
	}
}

// ── Helpers ──────────────────────────────────────────────

func (s *SimulatedTransport) dispatchJSON(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		jww.ERROR.Printf("simulated transport: marshal %q: %v", event, err)
		return
	}
	s.registry.dispatch(event, raw)
}

func (s *SimulatedTransport) randomRemoteUser() (User, bool) {
	var remote []User
	for _, u := range s.cfg.Users {
		if u.ID != s.cfg.SelfUser.ID {
			remote = append(remote, u)
		}
	}
	if len(remote) == 0 {
		return User{}, false
	}
	return remote[s.intn(len(remote))], true
}

func (s *SimulatedTransport) randomConversation() (string, bool) {
	if len(s.cfg.ConversationIDs) == 0 {
		return "", false
	}
	return s.cfg.ConversationIDs[s.intn(len(s.cfg.ConversationIDs))], true
}

func (s *SimulatedTransport) interval(b IntervalBounds) time.Duration {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return b.pick(s.rnd)
}

func (s *SimulatedTransport) intn(n int) int {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.Intn(n)
}

func (s *SimulatedTransport) float64() float64 {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.Float64()
}
