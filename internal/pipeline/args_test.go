package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFrequency(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "106.9", formatFrequency(106.9))
	assert.Equal(t, "90.1", formatFrequency(90.1))
	assert.Equal(t, "100", formatFrequency(100))
}

func TestReceiverArgsLocal(t *testing.T) {
	t.Parallel()

	got := receiverArgs(StartParams{FrequencyMHz: 106.9, Program: 0})
	assert.Equal(t, []string{"106.9", "0", "-o", "-"}, got)
}

func TestReceiverArgsRemote(t *testing.T) {
	t.Parallel()

	got := receiverArgs(StartParams{FrequencyMHz: 90.1, Program: 2, Host: "rtl.local", Port: 1234})
	assert.Equal(t, []string{"-H", "rtl.local:1234", "90.1", "2", "-o", "-"}, got)
}

func TestPlayerArgsReadFromPipe(t *testing.T) {
	t.Parallel()

	got := playerArgs()
	assert.Contains(t, got, "-autoexit")
	assert.Contains(t, got, "nobuffer")
	assert.Equal(t, "pipe:0", got[len(got)-1])
}

func TestRecorderArgsEncodeToPath(t *testing.T) {
	t.Parallel()

	got := recorderArgs("/rec/out.mp3")
	assert.Contains(t, got, "libmp3lame")
	assert.Contains(t, got, "pipe:0")
	assert.Equal(t, "/rec/out.mp3", got[len(got)-1])
}
