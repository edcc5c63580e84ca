package huddle

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"nhooyr.io/websocket"
)

// ============================================================================
// Socket Configuration
// ============================================================================

// SocketConfig configures a SocketTransport.
type SocketConfig struct {
	// Token authenticates the connection; it is appended to the
	// websocket URL.
	Token string
	// HeartbeatInterval is the cadence of keepalive pings.
	HeartbeatInterval time.Duration
	// WriteTimeout bounds a single Emit write.
	WriteTimeout time.Duration
}

func (c *SocketConfig) defaults() {
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 25 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
}

// ============================================================================
// SocketTransport
// ============================================================================

// SocketTransport is the real duplex-socket Transport. It dials a
// websocket endpoint, dispatches inbound envelopes to registered
// handlers, and sends keepalive pings. There is no automatic
// reconnect; a dropped connection surfaces as a disconnect event and
// the caller decides when to call Reconnect.
type SocketTransport struct {
	baseURL  string
	cfg      SocketConfig
	registry *handlerRegistry

	mu               sync.Mutex
	conn             *websocket.Conn
	connected        bool
	intentionalClose bool
	cancelFn         context.CancelFunc
}

var _ Transport = (*SocketTransport)(nil)

// NewSocketTransport creates a disconnected socket transport for the
// given base URL (http/https scheme; rewritten to ws/wss on dial).
func NewSocketTransport(baseURL string, cfg SocketConfig) *SocketTransport {
	cfg.defaults()
	return &SocketTransport{
		baseURL:  baseURL,
		cfg:      cfg,
		registry: newHandlerRegistry(),
	}
}

// Connect dials the websocket endpoint. Connecting an already
// connected transport is a no-op.
func (t *SocketTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.connected {
		t.mu.Unlock()
		return nil
	}
	t.intentionalClose = false
	t.mu.Unlock()

	wsURL := strings.Replace(t.baseURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL += "/ws"
	if t.cfg.Token != "" {
		wsURL += "?token=" + t.cfg.Token
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return errors.Wrap(err, "websocket dial")
	}

	connCtx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.conn = conn
	t.connected = true
	t.cancelFn = cancel
	t.mu.Unlock()

	go t.readLoop(connCtx, conn)
	go t.heartbeatLoop(connCtx, conn)

	t.registry.dispatch(EventConnect, nil)
	return nil
}

// Disconnect gracefully closes the connection. Safe to call when
// already disconnected.
func (t *SocketTransport) Disconnect() error {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return nil
	}
	t.intentionalClose = true
	t.connected = false
	if t.cancelFn != nil {
		t.cancelFn()
		t.cancelFn = nil
	}
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	t.registry.dispatch(EventDisconnect, nil)
	return err
}

// Reconnect tears down any existing connection and dials again. This
// is the only reconnection path; nothing reconnects automatically.
func (t *SocketTransport) Reconnect(ctx context.Context) error {
	if err := t.Disconnect(); err != nil {
		jww.WARN.Printf("socket transport: close before reconnect: %v", err)
	}
	if err := t.Connect(ctx); err != nil {
		return err
	}
	t.registry.dispatch(EventReconnect, nil)
	return nil
}

// IsConnected reports the connection state.
func (t *SocketTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// On registers a handler for an event.
func (t *SocketTransport) On(event string, h Handler) HandlerID {
	return t.registry.on(event, h)
}

// Off removes handler registrations; with no ids it clears the event.
func (t *SocketTransport) Off(event string, ids ...HandlerID) {
	t.registry.off(event, ids...)
}

// Emit writes an envelope to the socket. When disconnected the event
// is silently dropped (fire-and-forget, at-most-once).
func (t *SocketTransport) Emit(event string, payload any) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		jww.DEBUG.Printf("socket transport: dropping %q emit while disconnected", event)
		return nil
	}

	raw, err := marshalPayload(payload)
	if err != nil {
		return errors.Wrapf(err, "marshal %q payload", event)
	}
	data, err := json.Marshal(Envelope{Event: event, Payload: raw})
	if err != nil {
		return errors.Wrapf(err, "marshal %q envelope", event)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.WriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

func (t *SocketTransport) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.mu.Lock()
			intentional := t.intentionalClose
			wasConnected := t.connected && t.conn == conn
			if wasConnected {
				t.connected = false
				t.conn = nil
			}
			t.mu.Unlock()

			if !intentional && wasConnected {
				jww.INFO.Printf("socket transport: connection lost: %v", err)
				t.registry.dispatch(EventDisconnect, nil)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			jww.WARN.Printf("socket transport: malformed envelope: %v", err)
			continue
		}
		t.registry.dispatch(env.Event, env.Payload)
	}
}

func (t *SocketTransport) heartbeatLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(t.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, t.cfg.WriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				// Force the read loop to observe the failure.
				conn.Close(websocket.StatusGoingAway, "heartbeat timeout")
				return
			}
		}
	}
}
