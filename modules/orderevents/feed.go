package orderevents

import (
	"sync"
	"time"
)

// DefaultFeedSize is the number of events kept for the dashboard.
const DefaultFeedSize = 50

// FeedEntry is one consumed event.
type FeedEntry struct {
	Type      string    `json:"type"`
	Key       string    `json:"key"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// feed is a bounded ring of the most recent entries.
type feed struct {
	mu      sync.RWMutex
	entries []FeedEntry
	next    int
	full    bool
}

func newFeed(size int) *feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &feed{entries: make([]FeedEntry, size)}
}

func (f *feed) add(e FeedEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[f.next] = e
	f.next = (f.next + 1) % len(f.entries)
	if f.next == 0 {
		f.full = true
	}
}

// recent returns up to limit entries, newest first. limit <= 0 returns all.
func (f *feed) recent(limit int) []FeedEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := f.next
	if f.full {
		n = len(f.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]FeedEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (f.next - i + len(f.entries)) % len(f.entries)
		out = append(out, f.entries[idx])
	}
	return out
}
