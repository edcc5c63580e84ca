package huddle

import "testing"

func TestSearchMessages(t *testing.T) {
	s, _ := newTestStore(t)
	s.SeedConversations([]Conversation{{ID: "c2", DisplayName: "Carpool", Kind: KindTeam}})

	s.ReceiveMessage(receivedMessage("m1", "c1", "u-alex", "Anyone up for pizza after practice?", 100))
	s.ReceiveMessage(receivedMessage("m2", "c1", "u-sam", "Training moved to 7pm", 200))
	s.ReceiveMessage(receivedMessage("m3", "c2", "u-alex", "PIZZA night on friday", 300))

	t.Run("empty query matches nothing", func(t *testing.T) {
		if got := s.SearchMessages(""); len(got) != 0 {
			t.Fatalf("empty query returned %d results", len(got))
		}
		if got := s.SearchMessages("   "); len(got) != 0 {
			t.Fatalf("whitespace query returned %d results", len(got))
		}
	})

	t.Run("case-insensitive substring across conversations", func(t *testing.T) {
		got := s.SearchMessages("pizza")
		if len(got) != 2 {
			t.Fatalf("result count = %d, want 2", len(got))
		}
		// Newest first.
		if got[0].ID != "m3" || got[1].ID != "m1" {
			t.Fatalf("unexpected order: %s, %s", got[0].ID, got[1].ID)
		}
	})

	t.Run("exact single hit", func(t *testing.T) {
		got := s.SearchMessages("7pm")
		if len(got) != 1 || got[0].ID != "m2" {
			t.Fatalf("unexpected results: %+v", got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		if got := s.SearchMessages("lacrosse"); len(got) != 0 {
			t.Fatalf("expected no results, got %+v", got)
		}
	})
}
