// Package history keeps a bounded log of now-playing transitions, one
// entry per distinct (title, artist, album) triple.
package history

import "time"

// Capacity is the maximum number of entries retained; the oldest entry
// is evicted once the log is full.
const Capacity = 500

// Entry is one recorded transition. Entries are immutable once appended.
type Entry struct {
	Time   time.Time `json:"time"`
	Title  string    `json:"title"`
	Artist string    `json:"artist"`
	Album  string    `json:"album"`
}

// Log is a FIFO of capacity 500 that deduplicates consecutive repeats
// of the same triple. The zero value is ready to use. It is not safe
// for concurrent use; the pipeline loop owns it.
type Log struct {
	entries []Entry
	hasLast bool
	last    [3]string
}

// Append records the triple unless it equals the previously recorded
// one, or all three fields are empty. It reports whether an entry was
// added.
func (l *Log) Append(t time.Time, title, artist, album string) bool {
	if title == "" && artist == "" && album == "" {
		return false
	}
	key := [3]string{title, artist, album}
	if l.hasLast && key == l.last {
		return false
	}

	l.entries = append(l.entries, Entry{Time: t, Title: title, Artist: artist, Album: album})
	if len(l.entries) > Capacity {
		l.entries = l.entries[len(l.entries)-Capacity:]
	}
	l.last = key
	l.hasLast = true
	return true
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns up to limit entries, newest first. limit <= 0 returns
// everything.
func (l *Log) Entries(limit int) []Entry {
	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = l.entries[len(l.entries)-1-i]
	}
	return out
}

// Reset clears the log and forgets the dedup key, so the first triple
// of a new session is always recorded.
func (l *Log) Reset() {
	l.entries = nil
	l.hasLast = false
	l.last = [3]string{}
}
