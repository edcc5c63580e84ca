package huddle

import (
	"context"
	"encoding/json"
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// ============================================================================
// Wire Events
// ============================================================================

// Wire event names. All events are fire-and-forget with no
// acknowledgement envelope.
const (
	EventMessageSend    = "message:send"
	EventMessageReceive = "message:receive"
	EventMessageEdit    = "message:edit"
	EventMessageDelete  = "message:delete"
	EventMessageReact   = "message:react"
	EventTypingStart    = "typing:start"
	EventTypingStop     = "typing:stop"
	EventPresenceUpdate = "presence:update"
	EventConvCreate     = "conversation:create"
	EventConvUpdate     = "conversation:update"

	// Meta events carry no payload.
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
	EventReconnect  = "reconnect"
)

// Envelope is the wire format for all transport events.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ============================================================================
// Transport Interface
// ============================================================================

// Handler receives the raw payload of one event occurrence. Handlers
// are invoked one at a time; a handler body never interleaves with
// another.
type Handler func(payload json.RawMessage)

// HandlerID identifies a single registration so it can be removed
// individually. Registering the same function twice yields two
// independent registrations.
type HandlerID uint64

// Transport is a bidirectional, at-most-once event channel. The two
// implementations — SimulatedTransport and SocketTransport — are
// selected once at startup; callers never branch on the concrete type.
type Transport interface {
	// Connect opens the channel. Connecting an already connected
	// transport is a no-op.
	Connect(ctx context.Context) error

	// Disconnect closes the channel and stops any internal timers.
	// Safe to call repeatedly.
	Disconnect() error

	// Emit sends an event. When disconnected it silently drops the
	// event (logged, never returned as an error to the caller's
	// optimistic path).
	Emit(event string, payload any) error

	// On registers a handler for an event and returns its id.
	On(event string, h Handler) HandlerID

	// Off removes the given registrations for an event. With no ids it
	// clears every handler for that event.
	Off(event string, ids ...HandlerID)

	// IsConnected reports the binary connection state.
	IsConnected() bool
}

// ============================================================================
// Handler Registry
// ============================================================================

type registration struct {
	id HandlerID
	fn Handler
}

// handlerRegistry is the handler table shared by both transport
// implementations.
type handlerRegistry struct {
	mu     sync.RWMutex
	nextID HandlerID
	table  map[string][]registration
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{table: make(map[string][]registration)}
}

func (r *handlerRegistry) on(event string, h Handler) HandlerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.table[event] = append(r.table[event], registration{id: r.nextID, fn: h})
	return r.nextID
}

func (r *handlerRegistry) off(event string, ids ...HandlerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(ids) == 0 {
		delete(r.table, event)
		return
	}
	kept := r.table[event][:0]
	for _, reg := range r.table[event] {
		remove := false
		for _, id := range ids {
			if reg.id == id {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, reg)
		}
	}
	if len(kept) == 0 {
		delete(r.table, event)
	} else {
		r.table[event] = kept
	}
}

// dispatch invokes every handler registered for the event, in
// registration order, swallowing panics in user callbacks.
func (r *handlerRegistry) dispatch(event string, payload json.RawMessage) {
	r.mu.RLock()
	regs := append([]registration{}, r.table[event]...)
	r.mu.RUnlock()
	for _, reg := range regs {
		func() {
			defer func() {
				if p := recover(); p != nil {
					jww.ERROR.Printf("handler for %q panicked: %v", event, p)
				}
			}()
			reg.fn(payload)
		}()
	}
}

// marshalPayload encodes an Emit payload for the wire. A nil payload
// stays nil (meta events).
func marshalPayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
