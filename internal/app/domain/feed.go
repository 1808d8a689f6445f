package domain

import "time"

// Feed names.
const (
	FeedOpenPhish = "openphish"
	FeedURLhaus   = "urlhaus"
	FeedPhishTank = "phishtank"
)

// FeedSnapshot is an immutable copy of one blocklist as of FetchedAt.
type FeedSnapshot struct {
	Name      string
	Entries   map[string]struct{}
	FetchedAt time.Time
}

// NewFeedSnapshot builds a snapshot from raw entries.
func NewFeedSnapshot(name string, entries []string, fetchedAt time.Time) *FeedSnapshot {
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		set[entry] = struct{}{}
	}
	return &FeedSnapshot{Name: name, Entries: set, FetchedAt: fetchedAt}
}

// Contains reports exact-string membership.
func (s *FeedSnapshot) Contains(value string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Entries[value]
	return ok
}

// Size returns the number of entries.
func (s *FeedSnapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// List returns the entries in no particular order.
func (s *FeedSnapshot) List() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Entries))
	for entry := range s.Entries {
		out = append(out, entry)
	}
	return out
}
