package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkfault/hdrd/internal/config"
	"github.com/sparkfault/hdrd/internal/scanner"
	"github.com/sparkfault/hdrd/internal/ws"
)

func newTestRunner(cfg config.Config) *Runner {
	return New(ws.NewHub(), cfg, testLogger())
}

// awaitReply waits for a command result with a bound.
func awaitReply(t *testing.T, ch <-chan CommandResult, timeout time.Duration) CommandResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(timeout):
		t.Fatal("timed out waiting for command reply")
		return CommandResult{}
	}
}

func send(t *testing.T, r *Runner, typ string, payload any) CommandResult {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	reply := make(chan CommandResult, 1)
	r.Commands <- Command{Type: typ, Payload: raw, Reply: reply}
	return awaitReply(t, reply, 10*time.Second)
}

// writeScript drops an executable fake binary into dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestMetadataBatchLandsAsOneHistoryEntry(t *testing.T) {
	t.Parallel()

	r := newTestRunner(config.Default())
	r.handleDiagnostic([]byte("Title: Song A\nArtist: Band B\n"))

	entries := r.HistoryEntries(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "Song A", entries[0].Title)
	assert.Equal(t, "Band B", entries[0].Artist)

	// identical repeat deduplicates
	r.handleDiagnostic([]byte("Title: Song A\nArtist: Band B\n"))
	assert.Len(t, r.HistoryEntries(0), 1)

	np := r.Status().NowPlaying
	assert.Equal(t, "Song A", np.Title)
	assert.Equal(t, "Band B", np.Artist)
	assert.Equal(t, "Band B", np.DisplayArtist)
}

func TestDiagnosticLineSplitAcrossChunks(t *testing.T) {
	t.Parallel()

	r := newTestRunner(config.Default())
	r.handleDiagnostic([]byte("Title: Fra"))
	assert.Empty(t, r.Status().NowPlaying.Title)

	r.handleDiagnostic([]byte("gmented Song\n"))
	assert.Equal(t, "Fragmented Song", r.Status().NowPlaying.Title)
}

func TestBERLinesFeedSeriesAndStatus(t *testing.T) {
	t.Parallel()

	r := newTestRunner(config.Default())
	r.handleDiagnostic([]byte("BER: 0.015\n"))

	st := r.Status()
	assert.Equal(t, "1.500 %", st.BER)
	assert.InDelta(t, 1.5, st.BERPercent, 1e-9)

	info := r.BERSnapshot()
	require.Equal(t, []float64{1.5}, info.Values)
	assert.InDelta(t, 10.0, info.UpperBound, 1e-9)

	// a sample above the floor raises the bound to 1.1x the max
	r.handleDiagnostic([]byte("BER: 0.2\n"))
	info = r.BERSnapshot()
	assert.InDelta(t, 22.0, info.UpperBound, 1e-9)
}

func TestStationLineComputesPosition(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Operator.Latitude = 35.88
	cfg.Operator.Longitude = -95.77
	cfg.Operator.AltitudeM = 300
	r := newTestRunner(cfg)

	r.handleDiagnostic([]byte("Station location: 35.90, -95.77, 300m\n"))

	pos, ok := r.PositionSnapshot()
	require.True(t, ok)
	assert.Equal(t, "North", pos.Cardinal)
	assert.InDelta(t, 2224, pos.HorizontalM, 5)
	assert.InDelta(t, 0, pos.BearingDeg, 1e-9)
	assert.Equal(t, "0", pos.Vertical)
	assert.Contains(t, pos.Horizontal, "km North")
}

func TestStationLineWithoutOperatorPosition(t *testing.T) {
	t.Parallel()

	r := newTestRunner(config.Default())
	r.handleDiagnostic([]byte("Station location: 35.90, -95.77, 300m\n"))

	_, ok := r.PositionSnapshot()
	assert.False(t, ok)
	assert.Nil(t, r.Status().Position)
}

func TestUnmatchedLinesAreOnlyLogged(t *testing.T) {
	t.Parallel()

	r := newTestRunner(config.Default())
	before := r.Status()

	r.handleDiagnostic([]byte("Synchronized\nAudio bit rate: 128.0 kbps\n"))

	after := r.Status()
	assert.Equal(t, before.NowPlaying, after.NowPlaying)
	assert.Empty(t, after.BER)
	assert.Equal(t, []string{"Synchronized", "Audio bit rate: 128.0 kbps"}, r.DiagnosticTail(0))
	assert.Empty(t, r.HistoryEntries(0))
}

func TestArtistOverrideKeepsCanonicalEverywhereElse(t *testing.T) {
	t.Parallel()

	r := newTestRunner(config.Default())
	r.handleDiagnostic([]byte("Artist: Justin Bieber\n"))

	np := r.Status().NowPlaying
	assert.Equal(t, "Justin Bieber", np.Artist)
	assert.Equal(t, scanner.DisplayArtistPlaceholder, np.DisplayArtist)

	hist := r.HistoryEntries(0)
	require.Len(t, hist, 1)
	assert.Equal(t, "Justin Bieber", hist[0].Artist)
}

func TestValidationErrorLeavesSessionIdle(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Receiver.Binary = "/nonexistent/nrsc5"
	cfg.Player.Binary = "/nonexistent/ffplay"
	r := newTestRunner(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	res := send(t, r, "start", map[string]any{"frequency_mhz": -1})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "frequency")
	assert.Equal(t, "idle", r.Status().State)

	res = send(t, r, "start", map[string]any{"frequency_mhz": 106.9, "host": "rtl.local", "port": 0})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "port is required")
	assert.Equal(t, "idle", r.Status().State)
}

func TestCommandsRejectedOutsideRunning(t *testing.T) {
	t.Parallel()

	r := newTestRunner(config.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	res := send(t, r, "record_start", nil)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "not running")

	res = send(t, r, "record_stop", nil)
	assert.True(t, res.OK)
	assert.Equal(t, "not recording", res.Message)

	res = send(t, r, "stop", nil)
	assert.True(t, res.OK)
	assert.Equal(t, "receiver already stopped", res.Message)

	res = send(t, r, "bogus", nil)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "unknown command")
}

func TestStartRollsBackWhenReceiverMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Player.Binary = writeScript(t, dir, "fake-ffplay", "exec cat >/dev/null")
	cfg.Receiver.Binary = "/nonexistent/nrsc5"
	r := newTestRunner(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	res := send(t, r, "start", nil)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "receiver failed to start")
	assert.Equal(t, "idle", r.Status().State)
}

func TestSessionLifecycleWithFakeProcesses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recDir := filepath.Join(dir, "recordings")

	cfg := config.Default()
	cfg.Receiver.Binary = writeScript(t, dir, "fake-nrsc5",
		`printf 'Title: Integration Song\nArtist: Test Band\nBER: 0.004\n' >&2
printf 'pcm'
exec sleep 30`)
	cfg.Player.Binary = writeScript(t, dir, "fake-ffplay", "exec cat >/dev/null")
	cfg.Recorder.Binary = writeScript(t, dir, "fake-ffmpeg", "exec cat >/dev/null")
	cfg.Recorder.Directory = recDir

	r := newTestRunner(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	res := send(t, r, "start", map[string]any{"frequency_mhz": 98.5, "program": 1})
	require.True(t, res.OK, "start failed: %s", res.Error)

	st := r.Status()
	assert.Equal(t, "running", st.State)
	assert.InDelta(t, 98.5, st.FrequencyMHz, 1e-9)
	assert.Equal(t, 1, st.Program)
	firstID := st.SessionID
	assert.NotEmpty(t, firstID)

	// metadata flows from the fake receiver's stderr
	require.Eventually(t, func() bool {
		return r.Status().NowPlaying.Title == "Integration Song"
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return r.Status().BER == "0.400 %"
	}, 5*time.Second, 10*time.Millisecond)

	// recording names the file from the known song metadata
	res = send(t, r, "record_start", nil)
	require.True(t, res.OK, "record_start failed: %s", res.Error)
	assert.True(t, strings.HasPrefix(filepath.Base(res.File), "Integration Song - Test Band_"))
	assert.True(t, r.Status().Recording)

	res = send(t, r, "record_start", nil)
	require.True(t, res.OK)
	assert.Equal(t, "already recording", res.Message)

	res = send(t, r, "record_stop", nil)
	require.True(t, res.OK)
	assert.False(t, r.Status().Recording)

	// retune hands off to a fresh session
	res = send(t, r, "tune", map[string]any{"frequency_mhz": 90.1})
	require.True(t, res.OK, "tune failed: %s", res.Error)

	st = r.Status()
	assert.Equal(t, "running", st.State)
	assert.InDelta(t, 90.1, st.FrequencyMHz, 1e-9)
	assert.NotEqual(t, firstID, st.SessionID)

	res = send(t, r, "stop", nil)
	require.True(t, res.OK)
	assert.Equal(t, "receiver stopped", res.Message)
	assert.Equal(t, "idle", r.Status().State)
}

func TestStartResetsSessionSurfaces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Receiver.Binary = writeScript(t, dir, "quiet-nrsc5", "exec sleep 30")
	cfg.Player.Binary = writeScript(t, dir, "fake-ffplay", "exec cat >/dev/null")
	r := newTestRunner(cfg)

	// seed stale surfaces before the loop starts
	r.handleDiagnostic([]byte("Title: Old Song\nArtist: Old Band\nBER: 0.5\n"))
	require.Equal(t, "Old Song", r.Status().NowPlaying.Title)
	require.NotEmpty(t, r.HistoryEntries(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	res := send(t, r, "start", nil)
	require.True(t, res.OK, "start failed: %s", res.Error)

	st := r.Status()
	assert.Empty(t, st.NowPlaying.Title)
	assert.Empty(t, st.BER)
	assert.Empty(t, r.HistoryEntries(0))
	assert.Empty(t, r.DiagnosticTail(0))

	res = send(t, r, "stop", nil)
	require.True(t, res.OK)
}

func TestClearLogCommand(t *testing.T) {
	t.Parallel()

	r := newTestRunner(config.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.mu.Lock()
	r.diag.Append("leftover line")
	r.mu.Unlock()

	res := send(t, r, "clear_log", nil)
	require.True(t, res.OK)
	assert.Empty(t, r.DiagnosticTail(0))
}
