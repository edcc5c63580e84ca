package huddle

import (
	"testing"

	"gitlab.com/elixxir/ekv"
)

func TestSessionStore(t *testing.T) {
	t.Run("load before any save", func(t *testing.T) {
		ss := NewSessionStore(ekv.MakeMemstore())
		_, found, err := ss.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if found {
			t.Fatal("found a session that was never saved")
		}
	})

	t.Run("save then load round-trips", func(t *testing.T) {
		ss := NewSessionStore(ekv.MakeMemstore())
		want := Session{
			User:                   User{ID: "u-me", DisplayName: "Sam"},
			IsAuthenticated:        true,
			HasCompletedOnboarding: true,
		}
		if err := ss.Save(want); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, found, err := ss.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !found {
			t.Fatal("saved session not found")
		}
		if got.User.ID != want.User.ID || got.User.DisplayName != want.User.DisplayName {
			t.Fatalf("user = %+v, want %+v", got.User, want.User)
		}
		if !got.IsAuthenticated || !got.HasCompletedOnboarding {
			t.Fatalf("flags = %+v", got)
		}
	})

	t.Run("save overwrites", func(t *testing.T) {
		ss := NewSessionStore(ekv.MakeMemstore())
		ss.Save(Session{User: User{ID: "u-old"}, IsAuthenticated: true})
		ss.Save(Session{User: User{ID: "u-new"}, IsAuthenticated: true})
		got, _, err := ss.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got.User.ID != "u-new" {
			t.Fatalf("user id = %q, want u-new", got.User.ID)
		}
	})

	t.Run("clear removes the session", func(t *testing.T) {
		ss := NewSessionStore(ekv.MakeMemstore())
		ss.Save(Session{User: User{ID: "u-me"}, IsAuthenticated: true})
		if err := ss.Clear(); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		_, found, err := ss.Load()
		if err != nil {
			t.Fatalf("Load after clear: %v", err)
		}
		if found {
			t.Fatal("session survived Clear")
		}
	})

	t.Run("clear without a session is a no-op", func(t *testing.T) {
		ss := NewSessionStore(ekv.MakeMemstore())
		if err := ss.Clear(); err != nil {
			t.Fatalf("Clear on empty store: %v", err)
		}
	})
}
