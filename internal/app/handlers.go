package app

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/sparkfault/hdrd/internal/history"
	"github.com/sparkfault/hdrd/internal/pipeline"
	"github.com/sparkfault/hdrd/internal/presets"
)

// ---------------------------------------------------------------------------
// Core handlers
// ---------------------------------------------------------------------------

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	// If the client asks for JSON, return component-level health checks.
	if r.Header.Get("Accept") == "application/json" {
		a.handleHealthDetailed(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := a.pipeline.Status()

	resp := map[string]any{
		"name":           "hdrd",
		"version":        Version,
		"state":          st.State,
		"session":        st,
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
		"data_root":      a.cfg.Data.Root,
		"recording_dir":  a.cfg.RecordingDir(),
		"ws_clients":     a.wsHub.ClientCount(),
	}

	// Disk usage for the volume the recorder writes to.
	if du := diskUsage(a.cfg.RecordingDir()); du != nil {
		resp["disk"] = du
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"version":    Version,
		"go_version": GoVersion,
		"built_at":   BuiltAt,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *App) handleConfig(w http.ResponseWriter, _ *http.Request) {
	// Serve a copy with the broker credential withheld.
	cfg := a.cfg
	if cfg.MQTT.Password != "" {
		cfg.MQTT.Password = "<redacted>"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cfg)
}

// ---------------------------------------------------------------------------
// Pipeline commands
// ---------------------------------------------------------------------------

func (a *App) handleStart(w http.ResponseWriter, r *http.Request) {
	payload, ok := commandBody(w, r)
	if !ok {
		return
	}
	writeCommandResult(w, a.sendPipelineCommand("start", payload))
}

func (a *App) handleStop(w http.ResponseWriter, r *http.Request) {
	if _, ok := commandBody(w, r); !ok {
		return
	}
	writeCommandResult(w, a.sendPipelineCommand("stop", nil))
}

func (a *App) handleTune(w http.ResponseWriter, r *http.Request) {
	payload, ok := commandBody(w, r)
	if !ok {
		return
	}
	writeCommandResult(w, a.sendPipelineCommand("tune", payload))
}

func (a *App) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	if _, ok := commandBody(w, r); !ok {
		return
	}
	writeCommandResult(w, a.sendPipelineCommand("record_start", nil))
}

func (a *App) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	if _, ok := commandBody(w, r); !ok {
		return
	}
	writeCommandResult(w, a.sendPipelineCommand("record_stop", nil))
}

// ---------------------------------------------------------------------------
// Query surfaces
// ---------------------------------------------------------------------------

func (a *App) handleNowPlaying(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.pipeline.Status().NowPlaying)
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r)
	entries := a.pipeline.HistoryEntries(limit)
	if entries == nil {
		entries = []history.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"history": entries})
}

func (a *App) handleBER(w http.ResponseWriter, _ *http.Request) {
	info := a.pipeline.BERSnapshot()
	if info.Values == nil {
		info.Values = []float64{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

func (a *App) handlePosition(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"available": false}
	if pos, ok := a.pipeline.PositionSnapshot(); ok {
		resp["available"] = true
		resp["position"] = pos
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *App) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		writeCommandResult(w, a.sendPipelineCommand("clear_log", nil))
		return
	}

	lines := a.pipeline.DiagnosticTail(queryLimit(r))
	if lines == nil {
		lines = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"lines": lines})
}

// ---------------------------------------------------------------------------
// Presets
// ---------------------------------------------------------------------------

func (a *App) handlePresets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var p presets.Preset
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		added, err := a.presets.Add(p)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "preset": added})
	default:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"presets": a.presets.List()})
	}
}

// handlePresetByName serves DELETE /api/presets/{name}.
func (a *App) handlePresetByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/presets/")
	if name == "" {
		jsonError(w, "preset name required", http.StatusBadRequest)
		return
	}
	if err := a.presets.Remove(name); err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "message": "removed " + name})
}

func (a *App) handlePresetMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Name  string `json:"name"`
		Delta int    `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.presets.Move(req.Name, req.Delta); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "presets": a.presets.List()})
}

func (a *App) handlePresetExport(w http.ResponseWriter, _ *http.Request) {
	data, err := a.presets.Export()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (a *App) handlePresetImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	n, err := a.presets.Import(data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "imported": n, "presets": a.presets.List()})
}

// ---------------------------------------------------------------------------
// Recordings
// ---------------------------------------------------------------------------

func (a *App) handleRecordings(w http.ResponseWriter, r *http.Request) {
	dir := a.cfg.RecordingDir()

	if r.Method == http.MethodDelete {
		name := r.URL.Query().Get("name")
		if name == "" {
			jsonError(w, "name parameter required", http.StatusBadRequest)
			return
		}
		// Prevent path traversal.
		if strings.Contains(name, "/") || strings.Contains(name, "..") {
			jsonError(w, "invalid filename", http.StatusBadRequest)
			return
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			if os.IsNotExist(err) {
				jsonError(w, "file not found", http.StatusNotFound)
			} else {
				jsonError(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "message": "deleted " + name})
		return
	}

	// GET: list recordings.
	matches, _ := filepath.Glob(filepath.Join(dir, "*.mp3"))

	type recordingInfo struct {
		Filename   string `json:"filename"`
		Size       int64  `json:"size"`
		ModifiedAt string `json:"modified_at"`
	}

	recordings := make([]recordingInfo, 0, len(matches))
	var totalBytes int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		recordings = append(recordings, recordingInfo{
			Filename:   filepath.Base(m),
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC().Format(time.RFC3339),
		})
		totalBytes += info.Size()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"recordings":  recordings,
		"total_bytes": totalBytes,
		"directory":   dir,
	})
}

// ---------------------------------------------------------------------------
// System + detailed health
// ---------------------------------------------------------------------------

func (a *App) handleSystem(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"go_version":    runtime.Version(),
		"os":            runtime.GOOS,
		"arch":          runtime.GOARCH,
		"pid":           os.Getpid(),
		"goroutines":    runtime.NumGoroutine(),
		"data_root":     a.cfg.Data.Root,
		"recording_dir": a.cfg.RecordingDir(),
		"ws_clients":    a.wsHub.ClientCount(),
		"binaries": map[string]any{
			"receiver": binaryStatus(a.cfg.Receiver.Binary),
			"player":   binaryStatus(a.cfg.Player.Binary),
			"recorder": binaryStatus(a.cfg.Recorder.Binary),
		},
	}

	if hi, err := host.Info(); err == nil {
		resp["host"] = map[string]any{
			"hostname":         hi.Hostname,
			"platform":         hi.Platform,
			"platform_version": hi.PlatformVersion,
			"kernel_version":   hi.KernelVersion,
			"uptime_seconds":   hi.Uptime,
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp["memory"] = map[string]any{
			"total_bytes":  vm.Total,
			"used_bytes":   vm.Used,
			"used_percent": vm.UsedPercent,
		}
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		resp["cpu_percent"] = pct[0]
	}
	if du := diskUsage(a.cfg.RecordingDir()); du != nil {
		resp["disk"] = du
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *App) handleHealthDetailed(w http.ResponseWriter, _ *http.Request) {
	checks := map[string]any{}
	allOK := true

	// The data root must be writable for presets and recordings.
	tmpPath := filepath.Join(a.cfg.Data.Root, ".healthcheck")
	if err := os.WriteFile(tmpPath, []byte("ok"), 0o644); err != nil {
		checks["data_dir"] = map[string]any{"ok": false, "error": err.Error()}
		allOK = false
	} else {
		os.Remove(tmpPath)
		checks["data_dir"] = map[string]any{"ok": true, "path": a.cfg.Data.Root}
	}

	for name, bin := range map[string]string{
		"receiver": a.cfg.Receiver.Binary,
		"player":   a.cfg.Player.Binary,
		"recorder": a.cfg.Recorder.Binary,
	} {
		st := binaryStatus(bin)
		if ok, _ := st["ok"].(bool); !ok {
			allOK = false
		}
		checks[name] = st
	}

	if a.configPath != "" {
		if _, err := os.Stat(a.configPath); err != nil {
			checks["config_file"] = map[string]any{"ok": false, "error": err.Error()}
			allOK = false
		} else {
			checks["config_file"] = map[string]any{"ok": true, "path": a.configPath}
		}
	}

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"healthy": allOK,
		"checks":  checks,
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// sendPipelineCommand sends a command to the pipeline loop and waits for the
// reply. Both waits are bounded so a handler cannot hang once the loop has
// exited during shutdown.
func (a *App) sendPipelineCommand(cmdType string, payload json.RawMessage) pipeline.CommandResult {
	reply := make(chan pipeline.CommandResult, 1)
	cmd := pipeline.Command{Type: cmdType, Payload: payload, Reply: reply}

	select {
	case a.pipeline.Commands <- cmd:
	case <-time.After(2 * time.Second):
		return pipeline.CommandResult{OK: false, Error: "pipeline is not accepting commands"}
	}

	select {
	case result := <-reply:
		return result
	case <-time.After(15 * time.Second):
		return pipeline.CommandResult{OK: false, Error: "timed out waiting for the pipeline"}
	}
}

// commandBody enforces POST and reads a bounded request body. A false
// return means the response has already been written.
func commandBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if len(body) == 0 {
		return nil, true
	}
	return json.RawMessage(body), true
}

// queryLimit parses an optional positive ?limit= parameter, returning 0
// for "no limit".
func queryLimit(r *http.Request) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// binaryStatus reports whether an external binary resolves in PATH.
func binaryStatus(bin string) map[string]any {
	path, err := exec.LookPath(bin)
	if err != nil {
		return map[string]any{"ok": false, "error": bin + " not found in PATH"}
	}
	return map[string]any{"ok": true, "path": path}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"error": msg,
	})
}

// writeCommandResult writes a pipeline.CommandResult as JSON.
func writeCommandResult(w http.ResponseWriter, result pipeline.CommandResult) {
	w.Header().Set("Content-Type", "application/json")
	if !result.OK {
		w.WriteHeader(http.StatusInternalServerError)
	}
	_ = json.NewEncoder(w).Encode(result)
}
