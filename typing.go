package huddle

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// TypingStaleAfter is how long a typing entry stays visible without a
// refresh or an explicit stop. A missed typing:stop self-heals once
// the entry ages past the window.
const TypingStaleAfter = 10 * time.Second

// TypingEntry records that one user started typing in one
// conversation.
type TypingEntry struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName,omitempty"`
	StartedAt      int64  `json:"startedAtEpochMs"`
}

// ============================================================================
// Typing Tracker
// ============================================================================

// TypingTracker holds who is typing in which conversation. Expiry is
// lazy: stale entries stay in the map until overwritten or stopped and
// are filtered out at read time, so there are no expiry timers to
// cancel.
type TypingTracker struct {
	mu      sync.Mutex
	entries map[string]map[string]TypingEntry // conversation → user → entry
	now     func() time.Time
}

// NewTypingTracker creates an empty tracker with the given time
// source.
func NewTypingTracker(now func() time.Time) *TypingTracker {
	return &TypingTracker{
		entries: make(map[string]map[string]TypingEntry),
		now:     now,
	}
}

// Start upserts the (conversation, user) entry with a fresh timestamp;
// a repeated start refreshes it.
func (t *TypingTracker) Start(conversationID, userID, userName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries[conversationID] == nil {
		t.entries[conversationID] = make(map[string]TypingEntry)
	}
	t.entries[conversationID][userID] = TypingEntry{
		ConversationID: conversationID,
		UserID:         userID,
		UserName:       userName,
		StartedAt:      t.now().UnixMilli(),
	}
}

// Stop removes the (conversation, user) entry.
func (t *TypingTracker) Stop(conversationID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if users, ok := t.entries[conversationID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.entries, conversationID)
		}
	}
}

// TypingUsers returns the non-stale entries for a conversation,
// excluding the viewer, ordered by start time.
func (t *TypingTracker) TypingUsers(conversationID, viewerID string) []TypingEntry {
	t.mu.Lock()
	var all []TypingEntry
	for _, e := range t.entries[conversationID] {
		if e.UserID != viewerID {
			all = append(all, e)
		}
	}
	now := t.now()
	t.mu.Unlock()
	return ActiveTypists(all, now)
}

// ActiveTypists filters entries down to those younger than
// TypingStaleAfter as of now, sorted by start time then user id. It is
// a pure function so staleness is testable with a synthetic clock.
func ActiveTypists(entries []TypingEntry, now time.Time) []TypingEntry {
	cutoff := now.UnixMilli() - TypingStaleAfter.Milliseconds()
	var active []TypingEntry
	for _, e := range entries {
		if e.StartedAt > cutoff {
			active = append(active, e)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].StartedAt != active[j].StartedAt {
			return active[i].StartedAt < active[j].StartedAt
		}
		return active[i].UserID < active[j].UserID
	})
	return active
}

// FormatTypingLabel renders the typing indicator text for a set of
// active typists.
func FormatTypingLabel(entries []TypingEntry) string {
	switch len(entries) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s is typing…", entries[0].UserName)
	case 2:
		return fmt.Sprintf("%s and %s are typing…", entries[0].UserName, entries[1].UserName)
	default:
		return fmt.Sprintf("%d people are typing…", len(entries))
	}
}
