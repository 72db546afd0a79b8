package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendDeduplicatesConsecutiveRepeats(t *testing.T) {
	t.Parallel()

	var l Log
	now := time.Now()

	assert.True(t, l.Append(now, "Song A", "Band B", ""))
	assert.False(t, l.Append(now, "Song A", "Band B", ""), "identical repeat must not append")
	require.Equal(t, 1, l.Len())

	assert.True(t, l.Append(now, "Song C", "Band B", ""))
	assert.True(t, l.Append(now, "Song A", "Band B", ""), "dedup is consecutive-only, not global")
	assert.Equal(t, 3, l.Len())
}

func TestAppendSkipsEmptyTriple(t *testing.T) {
	t.Parallel()

	var l Log
	assert.False(t, l.Append(time.Now(), "", "", ""))
	assert.Equal(t, 0, l.Len())
}

func TestAppendEvictsOldest(t *testing.T) {
	t.Parallel()

	var l Log
	now := time.Now()
	for i := 0; i < Capacity+20; i++ {
		require.True(t, l.Append(now, fmt.Sprintf("Song %d", i), "X", ""))
	}

	require.Equal(t, Capacity, l.Len())

	newest := l.Entries(1)
	require.Len(t, newest, 1)
	assert.Equal(t, fmt.Sprintf("Song %d", Capacity+19), newest[0].Title)

	all := l.Entries(0)
	assert.Equal(t, fmt.Sprintf("Song %d", 20), all[len(all)-1].Title, "oldest retained entry after eviction")
}

func TestEntriesNewestFirstWithLimit(t *testing.T) {
	t.Parallel()

	var l Log
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.Append(base, "One", "A", "")
	l.Append(base.Add(time.Minute), "Two", "A", "")
	l.Append(base.Add(2*time.Minute), "Three", "A", "")

	got := l.Entries(2)
	require.Len(t, got, 2)
	assert.Equal(t, "Three", got[0].Title)
	assert.Equal(t, "Two", got[1].Title)
}

func TestResetForgetsDedupKey(t *testing.T) {
	t.Parallel()

	var l Log
	now := time.Now()
	l.Append(now, "Song A", "Band B", "LP")
	l.Reset()

	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Append(now, "Song A", "Band B", "LP"), "same triple must append again after reset")
}
