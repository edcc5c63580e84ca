package huddle

import (
	"testing"
	"time"
)

func TestTypingTracker(t *testing.T) {
	newTracker := func() (*TypingTracker, *fakeClock) {
		clock := newFakeClock()
		return NewTypingTracker(clock.now), clock
	}

	t.Run("start and stop", func(t *testing.T) {
		tr, _ := newTracker()
		tr.Start("c1", "u1", "Alex")
		if got := tr.TypingUsers("c1", ""); len(got) != 1 || got[0].UserName != "Alex" {
			t.Fatalf("unexpected typists: %+v", got)
		}
		tr.Stop("c1", "u1")
		if got := tr.TypingUsers("c1", ""); len(got) != 0 {
			t.Fatalf("expected empty after stop, got %+v", got)
		}
	})

	t.Run("repeated start refreshes the timestamp", func(t *testing.T) {
		tr, clock := newTracker()
		tr.Start("c1", "u1", "Alex")
		clock.advance(8 * time.Second)
		tr.Start("c1", "u1", "Alex")
		clock.advance(8 * time.Second)
		// 16s after the first start, 8s after the refresh: still active.
		if got := tr.TypingUsers("c1", ""); len(got) != 1 {
			t.Fatalf("refresh did not extend entry: %+v", got)
		}
	})

	t.Run("stale entries self-heal without a stop", func(t *testing.T) {
		tr, clock := newTracker()
		tr.Start("c1", "u1", "Alex")
		clock.advance(TypingStaleAfter + time.Millisecond)
		if got := tr.TypingUsers("c1", ""); len(got) != 0 {
			t.Fatalf("stale entry still visible: %+v", got)
		}
	})

	t.Run("viewer is excluded", func(t *testing.T) {
		tr, _ := newTracker()
		tr.Start("c1", "u1", "Alex")
		tr.Start("c1", "u2", "Sam")
		got := tr.TypingUsers("c1", "u1")
		if len(got) != 1 || got[0].UserID != "u2" {
			t.Fatalf("viewer not excluded: %+v", got)
		}
	})

	t.Run("conversations are independent", func(t *testing.T) {
		tr, _ := newTracker()
		tr.Start("c1", "u1", "Alex")
		if got := tr.TypingUsers("c2", ""); len(got) != 0 {
			t.Fatalf("typist leaked across conversations: %+v", got)
		}
	})
}

func TestActiveTypists(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	fresh := func(age time.Duration, user string) TypingEntry {
		return TypingEntry{
			ConversationID: "c1", UserID: user, UserName: user,
			StartedAt: now.Add(-age).UnixMilli(),
		}
	}

	entries := []TypingEntry{
		fresh(11*time.Second, "stale"),
		fresh(2*time.Second, "b"),
		fresh(5*time.Second, "a"),
	}
	got := ActiveTypists(entries, now)
	if len(got) != 2 {
		t.Fatalf("active count = %d, want 2", len(got))
	}
	// Sorted by start time: the older active entry first.
	if got[0].UserID != "a" || got[1].UserID != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}

	if got := ActiveTypists(nil, now); len(got) != 0 {
		t.Fatalf("expected empty for nil input, got %+v", got)
	}
}

func TestFormatTypingLabel(t *testing.T) {
	e := func(name string) TypingEntry { return TypingEntry{UserID: name, UserName: name} }

	cases := []struct {
		name    string
		entries []TypingEntry
		want    string
	}{
		{"none", nil, ""},
		{"one", []TypingEntry{e("Alex")}, "Alex is typing…"},
		{"two", []TypingEntry{e("Alex"), e("Sam")}, "Alex and Sam are typing…"},
		{"three", []TypingEntry{e("Alex"), e("Sam"), e("Riley")}, "3 people are typing…"},
		{"five", []TypingEntry{e("a"), e("b"), e("c"), e("d"), e("e")}, "5 people are typing…"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatTypingLabel(tc.entries); got != tc.want {
				t.Fatalf("label = %q, want %q", got, tc.want)
			}
		})
	}
}
