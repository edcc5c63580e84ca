package huddle

import (
	"encoding/json"
	"testing"
)

func TestHandlerRegistry(t *testing.T) {
	t.Run("dispatch in registration order", func(t *testing.T) {
		r := newHandlerRegistry()
		var order []string
		r.on("ev", func(json.RawMessage) { order = append(order, "first") })
		r.on("ev", func(json.RawMessage) { order = append(order, "second") })
		r.dispatch("ev", nil)
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Fatalf("unexpected order: %v", order)
		}
	})

	t.Run("same function twice fires twice", func(t *testing.T) {
		r := newHandlerRegistry()
		count := 0
		h := func(json.RawMessage) { count++ }
		r.on("ev", h)
		r.on("ev", h)
		r.dispatch("ev", nil)
		if count != 2 {
			t.Fatalf("count = %d, want 2", count)
		}
	})

	t.Run("off with id removes one registration", func(t *testing.T) {
		r := newHandlerRegistry()
		var fired []string
		id := r.on("ev", func(json.RawMessage) { fired = append(fired, "a") })
		r.on("ev", func(json.RawMessage) { fired = append(fired, "b") })
		r.off("ev", id)
		r.dispatch("ev", nil)
		if len(fired) != 1 || fired[0] != "b" {
			t.Fatalf("unexpected handlers fired: %v", fired)
		}
	})

	t.Run("off without ids clears the event", func(t *testing.T) {
		r := newHandlerRegistry()
		count := 0
		r.on("ev", func(json.RawMessage) { count++ })
		r.on("ev", func(json.RawMessage) { count++ })
		r.on("other", func(json.RawMessage) { count += 10 })
		r.off("ev")
		r.dispatch("ev", nil)
		r.dispatch("other", nil)
		if count != 10 {
			t.Fatalf("count = %d, want 10 (only the other event)", count)
		}
	})

	t.Run("panicking handler does not break dispatch", func(t *testing.T) {
		r := newHandlerRegistry()
		reached := false
		r.on("ev", func(json.RawMessage) { panic("handler bug") })
		r.on("ev", func(json.RawMessage) { reached = true })
		r.dispatch("ev", nil)
		if !reached {
			t.Fatal("second handler not reached after panic")
		}
	})

	t.Run("payload passes through untouched", func(t *testing.T) {
		r := newHandlerRegistry()
		var got json.RawMessage
		r.on("ev", func(p json.RawMessage) { got = p })
		r.dispatch("ev", json.RawMessage(`{"k":1}`))
		if string(got) != `{"k":1}` {
			t.Fatalf("payload = %s", got)
		}
	})
}

func TestMarshalPayload(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		raw, err := marshalPayload(nil)
		if err != nil || raw != nil {
			t.Fatalf("got %v, %v", raw, err)
		}
	})

	t.Run("raw message passes through", func(t *testing.T) {
		in := json.RawMessage(`[1,2]`)
		raw, err := marshalPayload(in)
		if err != nil || string(raw) != `[1,2]` {
			t.Fatalf("got %s, %v", raw, err)
		}
	})

	t.Run("structs are encoded", func(t *testing.T) {
		raw, err := marshalPayload(PresencePayload{UserID: "u1", IsOnline: true})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var p PresencePayload
		if err := json.Unmarshal(raw, &p); err != nil || p.UserID != "u1" || !p.IsOnline {
			t.Fatalf("roundtrip failed: %+v, %v", p, err)
		}
	})
}
