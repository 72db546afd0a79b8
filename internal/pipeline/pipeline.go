// Package pipeline owns the live radio session: the receiver, player
// and recorder processes, the audio fan-out between them, and the
// station metadata distilled from the receiver's diagnostics. All
// session state changes on a single event loop, so process events,
// commands and the recording tick are applied strictly in order.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sparkfault/hdrd/internal/ber"
	"github.com/sparkfault/hdrd/internal/config"
	"github.com/sparkfault/hdrd/internal/geo"
	"github.com/sparkfault/hdrd/internal/history"
	"github.com/sparkfault/hdrd/internal/metrics"
	"github.com/sparkfault/hdrd/internal/scanner"
	"github.com/sparkfault/hdrd/internal/telemetry"
	"github.com/sparkfault/hdrd/internal/ws"
)

const component = "pipeline"

// Command represents an external command sent to the pipeline via its
// Commands channel. The Reply channel receives exactly one result.
type Command struct {
	Type    string
	Payload json.RawMessage
	Reply   chan<- CommandResult
}

// CommandResult is the response sent back through a Command's Reply channel.
type CommandResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	File    string `json:"file,omitempty"`
}

// NowPlaying is the current song metadata. Artist is canonical;
// DisplayArtist carries the cosmetic override when one applies.
type NowPlaying struct {
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	DisplayArtist string `json:"display_artist"`
	Album         string `json:"album"`
}

// PositionInfo is the station's offset from the operator, raw and
// formatted in the configured units.
type PositionInfo struct {
	Station     geo.Point `json:"station"`
	HorizontalM float64   `json:"horizontal_m"`
	BearingDeg  float64   `json:"bearing_deg"`
	Cardinal    string    `json:"cardinal"`
	VerticalM   float64   `json:"vertical_m"`
	Horizontal  string    `json:"horizontal"`
	Vertical    string    `json:"vertical"`
}

// Status is a point-in-time view of the session.
type Status struct {
	State            string        `json:"state"`
	Recording        bool          `json:"recording"`
	FrequencyMHz     float64       `json:"frequency_mhz"`
	Program          int           `json:"program"`
	Host             string        `json:"host,omitempty"`
	Port             int           `json:"port,omitempty"`
	SessionID        string        `json:"session_id,omitempty"`
	StartedAt        string        `json:"started_at,omitempty"`
	NowPlaying       NowPlaying    `json:"now_playing"`
	BER              string        `json:"ber,omitempty"`
	BERPercent       float64       `json:"ber_percent,omitempty"`
	RecordingFile    string        `json:"recording_file,omitempty"`
	RecordingElapsed string        `json:"recording_elapsed,omitempty"`
	Position         *PositionInfo `json:"position,omitempty"`
}

// BERInfo is the buffered bit-error-rate series with its display bound.
// Origin counts samples evicted from the front of the window.
type BERInfo struct {
	Values     []float64 `json:"values"`
	UpperBound float64   `json:"upper_bound"`
	Origin     int       `json:"origin"`
	Current    string    `json:"current,omitempty"`
}

// Publisher pushes selected state changes to an external broker.
// *mqtt.Publisher satisfies it.
type Publisher interface {
	Publish(subtopic string, v any)
}

// pendingStart is a queued start waiting for the stop phase to finish,
// which is how a retune hands off between sessions.
type pendingStart struct {
	params StartParams
	reply  chan<- CommandResult
}

// Runner owns the pipeline event loop and all session state.
type Runner struct {
	Hub *ws.Hub
	Cfg config.Config
	Log *log.Logger

	// Commands receives external commands from HTTP handlers. The loop
	// processes them in arrival order with process events.
	Commands chan Command

	Metrics   *metrics.Metrics
	Publisher Publisher

	events chan procEvent

	// mu guards the fields below so HTTP handlers can snapshot them.
	// The loop is the only writer.
	mu       sync.RWMutex
	session  Session
	now      NowPlaying
	station  *geo.Point
	pos      geo.Offset
	posOK    bool
	bers     ber.Series
	hist     history.Log
	diag     DiagLog
	recFile  string
	recStart time.Time

	// Loop-owned; never touched outside Run.
	receiver     *supervisor
	player       *supervisor
	recorder     *supervisor
	diagBuf      []byte
	stopWait     map[*supervisor]Role
	stopDeadline time.Time
	stopReplies  []chan<- CommandResult
	pending      *pendingStart

	operator *geo.Point
	units    geo.Units
}

// New creates a pipeline runner. Call Run in a goroutine, then drive it
// through Commands and read it through the query methods.
func New(hub *ws.Hub, cfg config.Config, logger *log.Logger) *Runner {
	return &Runner{
		Hub:      hub,
		Cfg:      cfg,
		Log:      logger,
		Commands: make(chan Command, 4),
		events:   make(chan procEvent, 512),
		operator: cfg.Operator.Point(),
		units:    cfg.Operator.UnitsPref(),
	}
}

// SetMetrics registers the collectors the loop updates. Optional.
func (r *Runner) SetMetrics(m *metrics.Metrics) { r.Metrics = m }

// SetPublisher registers an external publisher for state changes. Optional.
func (r *Runner) SetPublisher(p Publisher) { r.Publisher = p }

// Run is the pipeline event loop. It returns once ctx is cancelled and
// every managed process has been torn down or the teardown deadline
// passed.
func (r *Runner) Run(ctx context.Context) {
	r.logLine("info", "pipeline started")
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return
		case ev := <-r.events:
			r.handleProcEvent(ev)
		case cmd := <-r.Commands:
			r.handleCommand(cmd)
		case now := <-tick.C:
			r.handleTick(now)
		}
	}
}

// handleCommand dispatches an incoming command to the appropriate handler.
func (r *Runner) handleCommand(cmd Command) {
	switch cmd.Type {
	case "start":
		r.handleStartCommand(cmd)
	case "stop":
		r.handleStopCommand(cmd)
	case "tune":
		r.handleTuneCommand(cmd)
	case "record_start":
		r.handleRecordStartCommand(cmd)
	case "record_stop":
		r.handleRecordStopCommand(cmd)
	case "clear_log":
		r.handleClearLogCommand(cmd)
	default:
		cmd.Reply <- CommandResult{OK: false, Error: "unknown command: " + cmd.Type}
	}
}

// tuneParams is the shared payload shape for start and tune. Pointers
// distinguish "absent" from zero values, since program 0 is valid.
type tuneParams struct {
	FrequencyMHz *float64 `json:"frequency_mhz"`
	Program      *int     `json:"program"`
	Host         *string  `json:"host"`
	Port         *int     `json:"port"`
}

// mergeParams overlays the payload fields that were present onto base.
func mergeParams(base StartParams, p tuneParams) StartParams {
	if p.FrequencyMHz != nil {
		base.FrequencyMHz = *p.FrequencyMHz
	}
	if p.Program != nil {
		base.Program = *p.Program
	}
	if p.Host != nil {
		base.Host = *p.Host
	}
	if p.Port != nil {
		base.Port = *p.Port
	}
	return base
}

// defaultParams returns the configured tuning defaults.
func (r *Runner) defaultParams() StartParams {
	return StartParams{
		FrequencyMHz: r.Cfg.Receiver.FrequencyMHz,
		Program:      r.Cfg.Receiver.Program,
		Host:         r.Cfg.Receiver.Host,
		Port:         r.Cfg.Receiver.Port,
	}
}

// sessionParams returns the current session's tuning inputs, falling
// back to the configured defaults before the first start.
func (r *Runner) sessionParams() StartParams {
	r.mu.RLock()
	s := r.session
	r.mu.RUnlock()
	if s.FrequencyMHz == 0 {
		return r.defaultParams()
	}
	return StartParams{FrequencyMHz: s.FrequencyMHz, Program: s.Program, Host: s.Host, Port: s.Port}
}

func (r *Runner) handleStartCommand(cmd Command) {
	var payload tuneParams
	if len(cmd.Payload) > 0 {
		if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
			cmd.Reply <- CommandResult{OK: false, Error: "invalid payload: " + err.Error()}
			return
		}
	}
	params := mergeParams(r.defaultParams(), payload)

	switch r.currentState() {
	case StateRunning, StateStarting:
		cmd.Reply <- CommandResult{OK: false, Error: "receiver already running; stop first or tune"}
	case StateStopping:
		r.queuePending(params, cmd.Reply)
	default:
		r.replyStart(cmd.Reply, params)
	}
}

func (r *Runner) handleStopCommand(cmd Command) {
	switch r.currentState() {
	case StateIdle:
		cmd.Reply <- CommandResult{OK: true, Message: "receiver already stopped"}
	case StateStopping:
		r.stopReplies = append(r.stopReplies, cmd.Reply)
	default:
		r.logLine("info", "stop requested")
		r.stopReplies = append(r.stopReplies, cmd.Reply)
		r.beginStop()
	}
}

func (r *Runner) handleTuneCommand(cmd Command) {
	var payload tuneParams
	if len(cmd.Payload) > 0 {
		if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
			cmd.Reply <- CommandResult{OK: false, Error: "invalid payload: " + err.Error()}
			return
		}
	}
	params := mergeParams(r.sessionParams(), payload)

	// Validate before touching the running session so a bad retune does
	// not take the radio down.
	if err := params.Validate(); err != nil {
		cmd.Reply <- CommandResult{OK: false, Error: err.Error()}
		return
	}

	switch r.currentState() {
	case StateIdle:
		r.replyStart(cmd.Reply, params)
	case StateStopping:
		r.queuePending(params, cmd.Reply)
	default:
		r.logLine("info", fmt.Sprintf("retuning to %s MHz program %d", formatFrequency(params.FrequencyMHz), params.Program))
		r.queuePending(params, cmd.Reply)
		r.beginStop()
	}
}

func (r *Runner) handleRecordStartCommand(cmd Command) {
	r.mu.RLock()
	st := r.session.State
	active := r.session.Recording
	s := r.session
	np := r.now
	r.mu.RUnlock()

	if st != StateRunning {
		cmd.Reply <- CommandResult{OK: false, Error: "receiver is not running"}
		return
	}
	if active {
		cmd.Reply <- CommandResult{OK: true, Message: "already recording"}
		return
	}

	dir := r.Cfg.RecordingDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		cmd.Reply <- CommandResult{OK: false, Error: "create recording directory: " + err.Error()}
		return
	}
	now := time.Now()
	file := recordingFilename(dir, np.Title, np.Artist, s.FrequencyMHz, s.Program, now)

	rec := newSupervisor(RoleRecorder, r.Log, r.events)
	if err := rec.start(r.Cfg.Recorder.Binary, recorderArgs(file), true, false); err != nil {
		msg := err.Error()
		r.logLine("error", msg)
		r.broadcastError(msg)
		cmd.Reply <- CommandResult{OK: false, Error: msg}
		return
	}
	r.recorder = rec

	r.mu.Lock()
	r.session.Recording = true
	r.recFile = file
	r.recStart = now
	r.mu.Unlock()

	if r.Metrics != nil {
		r.Metrics.Recordings.Inc()
	}
	r.logLine("info", "recording to "+filepath.Base(file))
	r.broadcast(telemetry.Recording{
		Event:  telemetry.Stamp(telemetry.EventRecording, component),
		Active: true,
		File:   file,
	})
	r.publish("recording", map[string]any{"active": true, "file": file})
	cmd.Reply <- CommandResult{OK: true, Message: "recording started", File: file}
}

func (r *Runner) handleRecordStopCommand(cmd Command) {
	if !r.recordingActive() {
		cmd.Reply <- CommandResult{OK: true, Message: "not recording"}
		return
	}
	file, elapsed := r.endRecording("stopped by request")
	cmd.Reply <- CommandResult{
		OK:      true,
		Message: fmt.Sprintf("recording stopped after %s", formatElapsed(elapsed)),
		File:    file,
	}
}

func (r *Runner) handleClearLogCommand(cmd Command) {
	r.mu.Lock()
	r.diag.Clear()
	r.mu.Unlock()
	cmd.Reply <- CommandResult{OK: true, Message: "diagnostic log cleared"}
}

// replyStart runs a start attempt and sends its outcome.
func (r *Runner) replyStart(reply chan<- CommandResult, params StartParams) {
	msg, err := r.startSession(params)
	if err != nil {
		reply <- CommandResult{OK: false, Error: err.Error()}
		return
	}
	reply <- CommandResult{OK: true, Message: msg}
}

// queuePending records a start to run once the stop phase finishes. A
// newer request supersedes an older one still waiting.
func (r *Runner) queuePending(params StartParams, reply chan<- CommandResult) {
	if r.pending != nil {
		r.pending.reply <- CommandResult{OK: false, Error: "superseded by a newer tune request"}
	}
	r.pending = &pendingStart{params: params, reply: reply}
}

// startSession validates params, resets the per-session surfaces and
// spawns the player and receiver. The player comes up first so the
// receiver never streams into a missing consumer.
func (r *Runner) startSession(params StartParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	r.mu.Lock()
	r.now = NowPlaying{}
	r.station = nil
	r.pos = geo.Offset{}
	r.posOK = false
	r.bers.Reset()
	r.hist.Reset()
	r.diag.Clear()
	r.mu.Unlock()
	r.diagBuf = nil
	if r.Metrics != nil {
		r.Metrics.BERPercent.Set(0)
	}
	r.broadcast(telemetry.NowPlaying{Event: telemetry.Stamp(telemetry.EventNowPlaying, component)})

	r.transition(StateStarting)

	player := newSupervisor(RolePlayer, r.Log, r.events)
	if err := player.start(r.Cfg.Player.Binary, playerArgs(), true, false); err != nil {
		r.transition(StateIdle)
		r.logLine("error", err.Error())
		r.broadcastError(err.Error())
		return "", err
	}
	r.player = player

	recv := newSupervisor(RoleReceiver, r.Log, r.events)
	if err := recv.start(r.Cfg.Receiver.Binary, receiverArgs(params), false, true); err != nil {
		player.requestStop(time.Second)
		r.player = nil
		r.transition(StateIdle)
		r.logLine("error", err.Error())
		r.broadcastError(err.Error())
		return "", err
	}
	r.receiver = recv

	r.mu.Lock()
	r.session.FrequencyMHz = params.FrequencyMHz
	r.session.Program = params.Program
	r.session.Host = params.Host
	r.session.Port = params.Port
	r.session.ID = uuid.NewString()
	r.session.StartedAt = time.Now().UTC()
	r.mu.Unlock()

	r.transition(StateRunning)
	if r.Metrics != nil {
		r.Metrics.SessionsStarted.Inc()
	}

	desc := fmt.Sprintf("receiver started: %s MHz program %d", formatFrequency(params.FrequencyMHz), params.Program)
	if params.Host != "" {
		desc += fmt.Sprintf(" via %s:%d", params.Host, params.Port)
	}
	r.logLine("info", desc)
	return desc, nil
}

// beginStop winds the session down: recording first so the encoder
// flushes while its queue drains, then the receiver, then the player.
// The state reaches Idle once every pending exit has been observed.
func (r *Runner) beginStop() {
	if r.recordingActive() {
		r.endRecording("session stopping")
	}
	r.transition(StateStopping)

	r.stopWait = make(map[*supervisor]Role)
	if r.recorder != nil {
		r.stopWait[r.recorder] = RoleRecorder
	}
	if r.receiver != nil {
		r.receiver.requestStop(time.Second)
		r.stopWait[r.receiver] = RoleReceiver
	}
	if r.player != nil {
		r.player.requestStop(time.Second)
		r.stopWait[r.player] = RolePlayer
	}
	r.stopDeadline = time.Now().Add(5 * time.Second)

	if len(r.stopWait) == 0 {
		r.finishStop()
	}
}

// finishStop completes the stop phase, answers queued stop requests and
// runs a pending retune if one is waiting.
func (r *Runner) finishStop() {
	r.receiver, r.player, r.recorder = nil, nil, nil
	r.stopWait = nil
	r.transition(StateIdle)

	for _, ch := range r.stopReplies {
		ch <- CommandResult{OK: true, Message: "receiver stopped"}
	}
	r.stopReplies = nil

	if ps := r.pending; ps != nil {
		r.pending = nil
		r.replyStart(ps.reply, ps.params)
	}
}

// endRecording clears the recording flag, asks the encoder to finish by
// closing its input, and reports the outcome. Safe to call when the
// recorder is already gone.
func (r *Runner) endRecording(note string) (string, time.Duration) {
	r.mu.Lock()
	file := r.recFile
	elapsed := time.Since(r.recStart)
	r.session.Recording = false
	r.recFile = ""
	r.mu.Unlock()

	if r.recorder != nil {
		r.recorder.stopByClosingInput(2 * time.Second)
	}

	r.logLine("info", fmt.Sprintf("recording stopped after %s: %s (%s)", formatElapsed(elapsed), filepath.Base(file), note))
	r.broadcast(telemetry.Recording{
		Event:          telemetry.Stamp(telemetry.EventRecording, component),
		Active:         false,
		File:           file,
		ElapsedSeconds: int64(elapsed.Seconds()),
		Elapsed:        formatElapsed(elapsed),
	})
	r.publish("recording", map[string]any{"active": false, "file": file})
	return file, elapsed
}

// handleProcEvent routes one supervisor notification. Events from a
// process that is no longer the session's current one are either stop
// phase bookkeeping or stale and dropped.
func (r *Runner) handleProcEvent(ev procEvent) {
	if role, ok := r.stopWait[ev.sup]; ok {
		switch ev.kind {
		case kindExit:
			delete(r.stopWait, ev.sup)
			r.noteExit(role, ev.exit)
			r.detach(ev.sup)
			if len(r.stopWait) == 0 {
				r.finishStop()
			}
		case kindDiag:
			// last diagnostics still drain in arrival order
			r.handleDiagnostic(ev.data)
		}
		return
	}

	if ev.sup != r.currentSup(ev.role) {
		if ev.kind == kindExit {
			r.Log.Printf("pipeline: stale %s exit (code %d) ignored", ev.role, ev.exit.code)
		}
		return
	}

	switch ev.kind {
	case kindData:
		r.forwardAudio(ev.data)
	case kindDiag:
		r.handleDiagnostic(ev.data)
	case kindIOError:
		r.logLine("warn", (&RuntimeProcessError{Role: ev.role, Err: ev.err}).Error())
	case kindExit:
		r.handleExit(ev)
	}
}

// handleExit reacts to the current process of a role going away outside
// the stop phase. The receiver dying takes the whole session down; the
// player or recorder dying degrades it.
func (r *Runner) handleExit(ev procEvent) {
	r.noteExit(ev.role, ev.exit)
	r.detach(ev.sup)

	st := r.currentState()
	switch ev.role {
	case RoleReceiver:
		switch ev.exit.class {
		case ExitAbnormal:
			msg := (&UnexpectedExit{Role: RoleReceiver, Code: ev.exit.code}).Error()
			r.logLine("error", msg)
			r.broadcastError(msg)
		case ExitNormal:
			r.logLine("info", "receiver finished")
		}
		if st == StateRunning || st == StateStarting {
			r.beginStop()
		}
	case RolePlayer:
		if ev.exit.class != ExitIntentional && (st == StateRunning || st == StateStarting) {
			r.logLine("warn", fmt.Sprintf("player exited unexpectedly (code %d); stream continues without audio", ev.exit.code))
		}
	case RoleRecorder:
		if r.recordingActive() {
			r.logLine("warn", fmt.Sprintf("recorder exited unexpectedly (code %d)", ev.exit.code))
			r.endRecording("recorder died")
		}
	}
}

// noteExit records one classified exit in the log, the event stream and
// the exit counters.
func (r *Runner) noteExit(role Role, exit exitInfo) {
	if r.Metrics != nil {
		r.Metrics.ProcessExits.WithLabelValues(string(role), string(exit.class)).Inc()
	}
	detail := fmt.Sprintf("%s exited with code %d", role, exit.code)
	if exit.class == ExitIntentional {
		detail = fmt.Sprintf("%s terminated (stop requested)", role)
	}
	r.Log.Printf("pipeline: %s", detail)
	r.broadcast(telemetry.ProcessEvent{
		Event:  telemetry.Stamp(telemetry.EventProcess, component),
		Role:   string(role),
		Class:  string(exit.class),
		Code:   exit.code,
		Detail: detail,
	})
}

// forwardAudio fans one PCM chunk out to the consumers. Each write is
// fire and forget; a saturated consumer loses the chunk rather than
// blocking the loop.
func (r *Runner) forwardAudio(b []byte) {
	if len(b) == 0 {
		return
	}
	if r.player != nil {
		if r.player.write(b) {
			if r.Metrics != nil {
				r.Metrics.AudioBytes.WithLabelValues("player").Add(float64(len(b)))
			}
		} else if r.Metrics != nil {
			r.Metrics.AudioDrops.WithLabelValues("player").Inc()
		}
	}
	if r.recorder != nil && r.recordingActive() {
		if r.recorder.write(b) {
			if r.Metrics != nil {
				r.Metrics.AudioBytes.WithLabelValues("recorder").Add(float64(len(b)))
			}
		} else if r.Metrics != nil {
			r.Metrics.AudioDrops.WithLabelValues("recorder").Inc()
		}
	}
}

// handleDiagnostic splits a raw stderr chunk into lines, reassembling a
// line broken across reads, and processes each in order. Song metadata
// is committed once per chunk so a title and artist arriving together
// land in the history as one entry.
func (r *Runner) handleDiagnostic(chunk []byte) {
	r.diagBuf = append(r.diagBuf, chunk...)
	changed := false
	for {
		i := bytes.IndexByte(r.diagBuf, '\n')
		if i < 0 {
			break
		}
		line := r.diagBuf[:i]
		r.diagBuf = r.diagBuf[i+1:]
		if r.consumeLine(line) {
			changed = true
		}
	}
	// a stream with no newlines must not grow the carry buffer forever
	if len(r.diagBuf) > 64*1024 {
		if r.consumeLine(r.diagBuf) {
			changed = true
		}
		r.diagBuf = nil
	}
	if changed {
		r.commitMetadata()
	}
}

// consumeLine records one diagnostic line and applies whatever the
// scanner recognized in it. It reports whether song metadata changed.
func (r *Runner) consumeLine(raw []byte) bool {
	line := strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
	if line == "" {
		return false
	}
	if r.Metrics != nil {
		r.Metrics.DiagnosticLines.Inc()
	}
	r.mu.Lock()
	r.diag.Append(line)
	r.mu.Unlock()

	res := scanner.Scan(line)
	switch res.Kind {
	case scanner.KindTitle:
		r.mu.Lock()
		changed := r.now.Title != res.Text
		r.now.Title = res.Text
		r.mu.Unlock()
		return changed
	case scanner.KindArtist:
		r.mu.Lock()
		changed := r.now.Artist != res.Text || r.now.DisplayArtist != res.DisplayText
		r.now.Artist = res.Text
		r.now.DisplayArtist = res.DisplayText
		r.mu.Unlock()
		return changed
	case scanner.KindAlbum:
		r.mu.Lock()
		changed := r.now.Album != res.Text
		r.now.Album = res.Text
		r.mu.Unlock()
		return changed
	case scanner.KindBER:
		r.mu.Lock()
		r.bers.Append(res.Percent)
		upper := r.bers.UpperBound()
		r.mu.Unlock()
		if r.Metrics != nil {
			r.Metrics.BERPercent.Set(res.Percent)
		}
		r.broadcast(telemetry.BERSample{
			Event:      telemetry.Stamp(telemetry.EventBER, component),
			Percent:    res.Percent,
			UpperBound: upper,
		})
	case scanner.KindStation:
		st := res.Station
		r.mu.Lock()
		r.station = &st
		r.pos, r.posOK = geo.Relative(&st, r.operator)
		pos, ok := r.pos, r.posOK
		r.mu.Unlock()
		if ok {
			info := r.positionInfo(pos, st)
			r.broadcast(telemetry.Position{
				Event:       telemetry.Stamp(telemetry.EventPosition, component),
				HorizontalM: info.HorizontalM,
				BearingDeg:  info.BearingDeg,
				Cardinal:    info.Cardinal,
				VerticalM:   info.VerticalM,
				Horizontal:  info.Horizontal,
				Vertical:    info.Vertical,
			})
		}
	}
	return false
}

// commitMetadata publishes the now-playing change and appends to the
// song history, deduplicating consecutive repeats.
func (r *Runner) commitMetadata() {
	r.mu.Lock()
	np := r.now
	added := r.hist.Append(time.Now(), np.Title, np.Artist, np.Album)
	var latest history.Entry
	if added {
		if es := r.hist.Entries(1); len(es) == 1 {
			latest = es[0]
		}
	}
	r.mu.Unlock()

	r.broadcast(telemetry.NowPlaying{
		Event:         telemetry.Stamp(telemetry.EventNowPlaying, component),
		Title:         np.Title,
		Artist:        np.Artist,
		DisplayArtist: np.DisplayArtist,
		Album:         np.Album,
	})
	r.publish("nowplaying", np)

	if added {
		if r.Metrics != nil {
			r.Metrics.HistoryEntries.Inc()
		}
		r.broadcast(telemetry.HistoryEntry{
			Event:  telemetry.Stamp(telemetry.EventHistory, component),
			Time:   latest.Time.UTC().Format(time.RFC3339),
			Title:  latest.Title,
			Artist: latest.Artist,
			Album:  latest.Album,
		})
	}
}

// handleTick drives the per-second recording progress event and the
// stop-phase deadline.
func (r *Runner) handleTick(now time.Time) {
	if r.stopWait != nil && now.After(r.stopDeadline) {
		r.Log.Printf("pipeline: stop phase timed out with %d process(es) unreaped", len(r.stopWait))
		for sup := range r.stopWait {
			r.detach(sup)
		}
		r.stopWait = nil
		r.finishStop()
	}

	r.mu.RLock()
	rec := r.session.Recording
	file := r.recFile
	start := r.recStart
	r.mu.RUnlock()
	if rec {
		elapsed := now.Sub(start)
		r.broadcast(telemetry.Recording{
			Event:          telemetry.Stamp(telemetry.EventRecording, component),
			Active:         true,
			File:           file,
			ElapsedSeconds: int64(elapsed.Seconds()),
			Elapsed:        formatElapsed(elapsed),
		})
	}
}

// shutdown tears everything down on daemon exit. The intentional flag
// goes up first so the teardown exits are never reported as crashes.
func (r *Runner) shutdown() {
	for _, s := range []*supervisor{r.recorder, r.receiver, r.player} {
		if s != nil {
			s.markIntentional()
		}
	}
	if r.recordingActive() {
		r.endRecording("daemon shutting down")
	}

	waiting := make(map[*supervisor]Role)
	if r.recorder != nil {
		waiting[r.recorder] = RoleRecorder
	}
	if r.receiver != nil {
		r.receiver.requestStop(time.Second)
		waiting[r.receiver] = RoleReceiver
	}
	if r.player != nil {
		r.player.requestStop(time.Second)
		waiting[r.player] = RolePlayer
	}

	if r.pending != nil {
		r.pending.reply <- CommandResult{OK: false, Error: "daemon shutting down"}
		r.pending = nil
	}
	for _, ch := range r.stopReplies {
		ch <- CommandResult{OK: true, Message: "receiver stopped"}
	}
	r.stopReplies = nil

	deadline := time.After(4 * time.Second)
	for len(waiting) > 0 {
		select {
		case ev := <-r.events:
			if ev.kind != kindExit {
				continue
			}
			if role, ok := waiting[ev.sup]; ok {
				delete(waiting, ev.sup)
				r.Log.Printf("pipeline: %s terminated on shutdown", role)
			}
		case <-deadline:
			r.Log.Printf("pipeline: shutdown timed out waiting for %d process(es)", len(waiting))
			return
		}
	}
	r.Log.Printf("pipeline: shutdown complete")
}

// Status returns a point-in-time snapshot of the session. Before the
// first start the tuning fields show the configured defaults.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Status{
		State:        r.session.State.String(),
		Recording:    r.session.Recording,
		FrequencyMHz: r.session.FrequencyMHz,
		Program:      r.session.Program,
		Host:         r.session.Host,
		Port:         r.session.Port,
		SessionID:    r.session.ID,
		NowPlaying:   r.now,
	}
	if r.session.FrequencyMHz == 0 {
		s.FrequencyMHz = r.Cfg.Receiver.FrequencyMHz
		s.Program = r.Cfg.Receiver.Program
		s.Host = r.Cfg.Receiver.Host
		s.Port = r.Cfg.Receiver.Port
	}
	if !r.session.StartedAt.IsZero() {
		s.StartedAt = r.session.StartedAt.UTC().Format(time.RFC3339)
	}
	if last, ok := r.bers.Last(); ok {
		s.BERPercent = last
		s.BER = scanner.FormatBER(last)
	}
	if r.session.Recording {
		s.RecordingFile = r.recFile
		s.RecordingElapsed = formatElapsed(time.Since(r.recStart))
	}
	if r.posOK && r.station != nil {
		info := r.positionInfo(r.pos, *r.station)
		s.Position = &info
	}
	return s
}

// BERSnapshot returns the buffered BER series for plotting.
func (r *Runner) BERSnapshot() BERInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := BERInfo{
		Values:     r.bers.Values(),
		UpperBound: r.bers.UpperBound(),
		Origin:     r.bers.WindowOrigin(),
	}
	if last, ok := r.bers.Last(); ok {
		info.Current = scanner.FormatBER(last)
	}
	return info
}

// HistoryEntries returns up to limit song transitions, newest first.
func (r *Runner) HistoryEntries(limit int) []history.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hist.Entries(limit)
}

// DiagnosticTail returns the most recent raw receiver lines.
func (r *Runner) DiagnosticTail(limit int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.diag.Tail(limit)
}

// PositionSnapshot returns the last computed station offset, if both a
// station location and an operator position are known.
func (r *Runner) PositionSnapshot() (PositionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.posOK || r.station == nil {
		return PositionInfo{}, false
	}
	return r.positionInfo(r.pos, *r.station), true
}

// positionInfo formats an offset in the configured units.
func (r *Runner) positionInfo(off geo.Offset, st geo.Point) PositionInfo {
	return PositionInfo{
		Station:     st,
		HorizontalM: off.HorizontalM,
		BearingDeg:  off.BearingDeg,
		Cardinal:    off.Cardinal,
		VerticalM:   off.VerticalM,
		Horizontal:  off.FormatHorizontal(r.units),
		Vertical:    off.FormatVertical(r.units),
	}
}

func (r *Runner) currentState() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session.State
}

func (r *Runner) recordingActive() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session.Recording
}

func (r *Runner) currentSup(role Role) *supervisor {
	switch role {
	case RoleReceiver:
		return r.receiver
	case RolePlayer:
		return r.player
	default:
		return r.recorder
	}
}

// detach forgets a supervisor reference once its exit is processed.
func (r *Runner) detach(s *supervisor) {
	switch s {
	case r.receiver:
		r.receiver = nil
	case r.player:
		r.player = nil
	case r.recorder:
		r.recorder = nil
	}
}

// transition moves the session to a new state and announces it.
func (r *Runner) transition(to State) {
	r.mu.Lock()
	from := r.session.State
	if from == to {
		r.mu.Unlock()
		return
	}
	if !LegalTransition(from, to) {
		r.Log.Printf("pipeline: illegal transition %s -> %s", from, to)
	}
	r.session.State = to
	r.mu.Unlock()

	r.Log.Printf("pipeline: state %s -> %s", from, to)
	r.broadcast(telemetry.StateTransition{
		Event: telemetry.Stamp(telemetry.EventState, component),
		From:  from.String(),
		To:    to.String(),
	})
	r.publish("state", map[string]string{"state": to.String()})
}

func (r *Runner) logLine(level, msg string) {
	r.Log.Printf("pipeline: %s", msg)
	r.broadcast(telemetry.LogLine{
		Event:   telemetry.Stamp(telemetry.EventLog, component),
		Level:   level,
		Message: msg,
	})
}

func (r *Runner) broadcastError(msg string) {
	r.broadcast(telemetry.ErrorEvent{
		Event:   telemetry.Stamp(telemetry.EventError, component),
		Message: msg,
	})
}

func (r *Runner) broadcast(ev any) {
	r.Hub.BroadcastJSON(ev)
}

func (r *Runner) publish(subtopic string, v any) {
	if r.Publisher != nil {
		r.Publisher.Publish(subtopic, v)
	}
}
