package huddle

import (
	"testing"
	"time"
)

func TestUnreadTotal(t *testing.T) {
	s, _ := newTestStore(t)
	s.SeedConversations([]Conversation{{ID: "c2", DisplayName: "Carpool", Kind: KindTeam}})

	s.ReceiveMessage(receivedMessage("m1", "c1", "u-alex", "one", 100))
	s.ReceiveMessage(receivedMessage("m2", "c1", "u-alex", "two", 200))
	s.ReceiveMessage(receivedMessage("m3", "c2", "u-sam", "three", 300))

	if got := s.UnreadTotal(); got != 3 {
		t.Fatalf("unread total = %d, want 3", got)
	}

	s.SetActiveConversation("c1")
	if got := s.UnreadTotal(); got != 1 {
		t.Fatalf("unread total after activating c1 = %d, want 1", got)
	}
}

func TestActiveConversation(t *testing.T) {
	s, _ := newTestStore(t)

	if _, ok := s.ActiveConversation(); ok {
		t.Fatal("no conversation should be active initially")
	}

	s.SetActiveConversation("c1")
	conv, ok := s.ActiveConversation()
	if !ok || conv.ID != "c1" {
		t.Fatalf("active = %+v, want c1", conv)
	}

	s.SetActiveConversation("")
	if _, ok := s.ActiveConversation(); ok {
		t.Fatal("clearing the pointer should deactivate")
	}

	if err := s.SetActiveConversation("missing"); err == nil {
		t.Fatal("expected error for unknown conversation")
	}
}

func TestMessagesFor(t *testing.T) {
	t.Run("sorted by creation time", func(t *testing.T) {
		s, _ := newTestStore(t)
		s.ReceiveMessage(receivedMessage("m2", "c1", "u-alex", "second", 200))
		s.ReceiveMessage(receivedMessage("m1", "c1", "u-alex", "first", 100))
		views := s.MessagesFor("c1")
		if views[0].ID != "m1" || views[1].ID != "m2" {
			t.Fatalf("not time-sorted: %s, %s", views[0].ID, views[1].ID)
		}
	})

	t.Run("sender names resolved from the roster", func(t *testing.T) {
		s, _ := newTestStore(t)
		s.ReceiveMessage(receivedMessage("m1", "c1", "u-alex", "hi", 100))
		s.ReceiveMessage(receivedMessage("m2", "c1", "u-ghost", "boo", 200))
		views := s.MessagesFor("c1")
		if views[0].SenderName != "Alex" {
			t.Fatalf("SenderName = %q, want Alex", views[0].SenderName)
		}
		if views[1].SenderName != "" {
			t.Fatalf("unknown sender should have empty name, got %q", views[1].SenderName)
		}
	})

	t.Run("reply resolution", func(t *testing.T) {
		s, _ := newTestStore(t)
		s.ReceiveMessage(receivedMessage("m1", "c1", "u-alex", "original", 100))
		s.ReceiveMessage(Message{
			ID: "m2", ConversationID: "c1", SenderID: "u-sam",
			Text: "reply", CreatedAt: 200, ReplyTo: "m1",
		})
		s.ReceiveMessage(Message{
			ID: "m3", ConversationID: "c1", SenderID: "u-sam",
			Text: "dangling", CreatedAt: 300, ReplyTo: "m-gone",
		})

		views := s.MessagesFor("c1")
		if views[1].ReplyPreview != "original" {
			t.Fatalf("ReplyPreview = %q, want original text", views[1].ReplyPreview)
		}
		if views[2].ReplyPreview != replyPlaceholder {
			t.Fatalf("ReplyPreview = %q, want placeholder", views[2].ReplyPreview)
		}
	})

	t.Run("unknown conversation is empty", func(t *testing.T) {
		s, _ := newTestStore(t)
		if got := s.MessagesFor("nope"); len(got) != 0 {
			t.Fatalf("expected empty view, got %+v", got)
		}
	})
}

func TestTypingLabelView(t *testing.T) {
	s, clock := newTestStore(t)

	s.Typing().Start("c1", "u-alex", "Alex")
	if got := s.TypingLabel("c1"); got != "Alex is typing…" {
		t.Fatalf("label = %q", got)
	}

	// The current user's own typing never shows.
	s.Typing().Start("c1", "u-me", "Me")
	if got := s.TypingLabel("c1"); got != "Alex is typing…" {
		t.Fatalf("label with self typing = %q", got)
	}

	s.Typing().Start("c1", "u-sam", "Sam")
	if got := s.TypingLabel("c1"); got != "Alex and Sam are typing…" {
		t.Fatalf("label = %q", got)
	}

	clock.advance(TypingStaleAfter + time.Second)
	if got := s.TypingLabel("c1"); got != "" {
		t.Fatalf("label after staleness = %q, want empty", got)
	}
}
