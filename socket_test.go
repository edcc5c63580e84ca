package huddle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

// echoSocketServer accepts one websocket connection, pushes every
// envelope from pushCh to the client, and forwards every client
// envelope to recvCh.
func echoSocketServer(t *testing.T, pushCh <-chan Envelope, recvCh chan<- Envelope) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		ctx := r.Context()

		go func() {
			for env := range pushCh {
				data, _ := json.Marshal(env)
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					return
				}
			}
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var env Envelope
			if json.Unmarshal(data, &env) == nil && recvCh != nil {
				select {
				case recvCh <- env:
				default:
				}
			}
		}
	}))
}

func TestSocketTransportRoundTrip(t *testing.T) {
	push := make(chan Envelope, 8)
	recv := make(chan Envelope, 8)
	server := echoSocketServer(t, push, recv)
	defer server.Close()
	defer close(push)

	tr := NewSocketTransport(server.URL, SocketConfig{Token: "tok-1"})

	inbound := make(chan Message, 8)
	tr.On(EventMessageReceive, func(p json.RawMessage) {
		var m Message
		if json.Unmarshal(p, &m) == nil {
			inbound <- m
		}
	})

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer tr.Disconnect()
	if !tr.IsConnected() {
		t.Fatal("not connected after Connect")
	}

	t.Run("outbound envelope reaches the server", func(t *testing.T) {
		if err := tr.Emit(EventMessageSend, SendPayload{
			ID: "m1", ConversationID: "c1", Text: "hello",
		}); err != nil {
			t.Fatalf("emit: %v", err)
		}
		env := awaitEvent(t, recv, "server receive")
		if env.Event != EventMessageSend {
			t.Fatalf("event = %q", env.Event)
		}
		var p SendPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if p.ID != "m1" || p.Text != "hello" {
			t.Fatalf("payload = %+v", p)
		}
	})

	t.Run("inbound envelope reaches handlers", func(t *testing.T) {
		raw, _ := json.Marshal(Message{
			ID: "m2", ConversationID: "c1", SenderID: "u-alex", Text: "hi back",
		})
		push <- Envelope{Event: EventMessageReceive, Payload: raw}

		m := awaitEvent(t, inbound, "inbound message")
		if m.ID != "m2" || m.SenderID != "u-alex" {
			t.Fatalf("message = %+v", m)
		}
	})
}

func TestSocketTransportDisconnect(t *testing.T) {
	t.Run("intentional disconnect fires one event", func(t *testing.T) {
		push := make(chan Envelope)
		server := echoSocketServer(t, push, nil)
		defer server.Close()
		defer close(push)

		tr := NewSocketTransport(server.URL, SocketConfig{})
		var disconnects int32
		tr.On(EventDisconnect, func(json.RawMessage) {
			atomic.AddInt32(&disconnects, 1)
		})

		if err := tr.Connect(context.Background()); err != nil {
			t.Fatalf("connect: %v", err)
		}
		if err := tr.Disconnect(); err != nil {
			t.Fatalf("disconnect: %v", err)
		}
		if tr.IsConnected() {
			t.Fatal("still reports connected")
		}

		// The read loop observed an intentional close; it must not
		// dispatch a second disconnect.
		time.Sleep(50 * time.Millisecond)
		if n := atomic.LoadInt32(&disconnects); n != 1 {
			t.Fatalf("disconnect events = %d, want 1", n)
		}

		if err := tr.Disconnect(); err != nil {
			t.Fatalf("second disconnect: %v", err)
		}
	})

	t.Run("server close surfaces as disconnect", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := websocket.Accept(w, r, nil)
			if err != nil {
				return
			}
			conn.Close(websocket.StatusGoingAway, "shutting down")
		}))
		defer server.Close()

		tr := NewSocketTransport(server.URL, SocketConfig{})
		lost := make(chan struct{}, 1)
		tr.On(EventDisconnect, func(json.RawMessage) {
			select {
			case lost <- struct{}{}:
			default:
			}
		})

		if err := tr.Connect(context.Background()); err != nil {
			t.Fatalf("connect: %v", err)
		}
		awaitEvent(t, lost, "disconnect event")
		if tr.IsConnected() {
			t.Fatal("still reports connected after server close")
		}
	})

	t.Run("emit while disconnected drops silently", func(t *testing.T) {
		tr := NewSocketTransport("http://127.0.0.1:1", SocketConfig{})
		if err := tr.Emit(EventMessageSend, SendPayload{ID: "m1"}); err != nil {
			t.Fatalf("emit: %v", err)
		}
	})

	t.Run("dial failure is an error", func(t *testing.T) {
		tr := NewSocketTransport("http://127.0.0.1:1", SocketConfig{})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := tr.Connect(ctx); err == nil {
			t.Fatal("expected dial error")
		}
		if tr.IsConnected() {
			t.Fatal("reports connected after failed dial")
		}
	})
}

func TestSocketTransportReconnect(t *testing.T) {
	push := make(chan Envelope)
	server := echoSocketServer(t, push, nil)
	defer server.Close()
	defer close(push)

	tr := NewSocketTransport(server.URL, SocketConfig{})
	reconnects := make(chan struct{}, 1)
	tr.On(EventReconnect, func(json.RawMessage) {
		select {
		case reconnects <- struct{}{}:
		default:
		}
	})

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer tr.Disconnect()

	if err := tr.Reconnect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	awaitEvent(t, reconnects, "reconnect event")
	if !tr.IsConnected() {
		t.Fatal("not connected after Reconnect")
	}
}
