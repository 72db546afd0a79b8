package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagLogEvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	var d DiagLog
	extra := 25
	for i := 0; i < DiagCapacity+extra; i++ {
		d.Append(fmt.Sprintf("line %d", i))
	}

	assert.Equal(t, DiagCapacity, d.Len())
	assert.Equal(t, DiagCapacity+extra, d.Total())

	all := d.Tail(0)
	require.Len(t, all, DiagCapacity)
	assert.Equal(t, fmt.Sprintf("line %d", extra), all[0])
	assert.Equal(t, fmt.Sprintf("line %d", DiagCapacity+extra-1), all[len(all)-1])
}

func TestDiagLogTailLimit(t *testing.T) {
	t.Parallel()

	var d DiagLog
	for _, line := range []string{"a", "b", "c", "d", "e"} {
		d.Append(line)
	}

	assert.Equal(t, []string{"d", "e"}, d.Tail(2))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, d.Tail(0))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, d.Tail(99))
}

func TestDiagLogClearKeepsTotal(t *testing.T) {
	t.Parallel()

	var d DiagLog
	d.Append("one")
	d.Append("two")
	d.Clear()

	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 2, d.Total())
	assert.Empty(t, d.Tail(0))
}
