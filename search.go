package huddle

import (
	"sort"
	"strings"
)

// SearchMessages scans every stored message for a case-insensitive
// substring match, newest first. There is no index; the scan is linear
// over the whole store. An empty or whitespace-only query matches
// nothing rather than everything.
func (s *ChatStore) SearchMessages(query string) []Message {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.Lock()
	var results []Message
	for _, list := range s.messages {
		for _, m := range list {
			if strings.Contains(strings.ToLower(m.Text), q) {
				results = append(results, *m)
			}
		}
	}
	s.mu.Unlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt != results[j].CreatedAt {
			return results[i].CreatedAt > results[j].CreatedAt
		}
		return results[i].ID < results[j].ID
	})
	return results
}
