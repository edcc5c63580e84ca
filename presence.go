package huddle

import "sort"

// ============================================================================
// Presence Tracker
// ============================================================================

// ApplyPresence applies a presence update. Presence is last-write-wins
// per user with no ordering or timestamp conflict resolution, so a
// late-arriving stale update can override a newer one; this mirrors
// the upstream behavior and is a known limitation. LastSeen is stamped
// on every update — it records "last observed", not "last went
// offline" — and an update for an unknown user creates a minimal
// roster entry.
func (s *ChatStore) ApplyPresence(p PresencePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[p.UserID]
	if !ok {
		u = &User{ID: p.UserID}
		s.users[p.UserID] = u
	}
	u.IsOnline = p.IsOnline
	u.LastSeen = s.now().UnixMilli()
}

// UserByID returns a copy of one roster entry.
func (s *ChatStore) UserByID(userID string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Users lists the roster sorted by display name, then id.
func (s *ChatStore) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// OnlineUsers lists the roster entries currently marked online.
func (s *ChatStore) OnlineUsers() []User {
	var online []User
	for _, u := range s.Users() {
		if u.IsOnline {
			online = append(online, u)
		}
	}
	return online
}
