package app

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparkfault/hdrd/internal/config"
)

// newTestApp builds an App on a temp data root and serves its mux from an
// httptest server. The pipeline loop runs so command endpoints get real
// replies, but no external process is ever spawned.
func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, *httptest.Server) {
	t.Helper()

	cfg := config.Default()
	cfg.Data.Root = t.TempDir()
	cfg.MQTT.Enabled = false
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, os.MkdirAll(cfg.RecordingDir(), 0o755))

	a, err := New(Options{
		Logger: log.New(io.Discard, "", 0),
		Cfg:    cfg,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go a.pipeline.Run(ctx)
	go a.wsHub.Run(ctx)

	mux := http.NewServeMux()
	a.routes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return a, srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestStatusEndpoint(t *testing.T) {
	_, srv := newTestApp(t, nil)

	var resp map[string]any
	code := getJSON(t, srv.URL+"/api/status", &resp)

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "hdrd", resp["name"])
	require.Equal(t, "idle", resp["state"])
	require.Contains(t, resp, "session")
	require.Contains(t, resp, "recording_dir")
	require.Contains(t, resp, "uptime_seconds")
}

func TestHealthzPlainAndDetailed(t *testing.T) {
	_, srv := newTestApp(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok\n", string(body))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var detailed struct {
		Healthy bool                      `json:"healthy"`
		Checks  map[string]map[string]any `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detailed))
	require.Contains(t, detailed.Checks, "data_dir")
	require.Contains(t, detailed.Checks, "receiver")
	require.Contains(t, detailed.Checks, "player")
	require.Contains(t, detailed.Checks, "recorder")
	require.Equal(t, true, detailed.Checks["data_dir"]["ok"])
}

func TestVersionEndpoint(t *testing.T) {
	_, srv := newTestApp(t, nil)

	var resp map[string]any
	code := getJSON(t, srv.URL+"/api/version", &resp)

	require.Equal(t, http.StatusOK, code)
	require.Contains(t, resp, "version")
	require.Contains(t, resp, "go_version")
	require.Contains(t, resp, "built_at")
}

func TestConfigEndpointRedactsBrokerPassword(t *testing.T) {
	_, srv := newTestApp(t, func(cfg *config.Config) {
		cfg.MQTT.Password = "hunter2"
	})

	var resp config.Config
	code := getJSON(t, srv.URL+"/api/config", &resp)

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "<redacted>", resp.MQTT.Password)
}

func TestSystemEndpoint(t *testing.T) {
	_, srv := newTestApp(t, nil)

	var resp map[string]any
	code := getJSON(t, srv.URL+"/api/system", &resp)

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "linux", resp["os"])
	require.Contains(t, resp, "go_version")
	require.Contains(t, resp, "binaries")
}

func TestCommandEndpointsRequirePost(t *testing.T) {
	_, srv := newTestApp(t, nil)

	for _, path := range []string{"/api/start", "/api/stop", "/api/tune", "/api/record/start", "/api/record/stop"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
	}
}

func TestStopWhenIdleSucceeds(t *testing.T) {
	_, srv := newTestApp(t, nil)

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/stop", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])
	require.Contains(t, body["message"], "already stopped")
}

func TestStartValidationErrorSurfacesInResponse(t *testing.T) {
	_, srv := newTestApp(t, nil)

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/start", `{"frequency_mhz": -1}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, false, body["ok"])
	require.Contains(t, body["error"], "greater than zero")
}

func TestPresetLifecycleOverHTTP(t *testing.T) {
	_, srv := newTestApp(t, nil)

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/presets", `{"name":"Jazz","freq":"101.1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])
	preset := body["preset"].(map[string]any)
	require.Equal(t, "0", preset["prog"])

	resp, body = doRequest(t, http.MethodPost, srv.URL+"/api/presets", `{"name":"News","freq":"88.7","prog":"2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Presets []map[string]any `json:"presets"`
	}
	getJSON(t, srv.URL+"/api/presets", &list)
	require.Len(t, list.Presets, 2)
	require.Equal(t, "Jazz", list.Presets[0]["name"])

	resp, body = doRequest(t, http.MethodPost, srv.URL+"/api/presets/move", `{"name":"Jazz","delta":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	getJSON(t, srv.URL+"/api/presets", &list)
	require.Equal(t, "News", list.Presets[0]["name"])

	resp, _ = doRequest(t, http.MethodDelete, srv.URL+"/api/presets/Jazz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodDelete, srv.URL+"/api/presets/Jazz", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doRequest(t, http.MethodPost, srv.URL+"/api/presets", `{"name":"Broken"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body["error"], "frequency")
}

func TestPresetExportImportRoundTrip(t *testing.T) {
	_, srv := newTestApp(t, nil)

	_, _ = doRequest(t, http.MethodPost, srv.URL+"/api/presets", `{"name":"Jazz","freq":"101.1","prog":"1"}`)

	resp, err := http.Get(srv.URL + "/api/presets/export")
	require.NoError(t, err)
	exported, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r, body := doRequest(t, http.MethodPost, srv.URL+"/api/presets/import", string(exported))
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.Equal(t, float64(1), body["imported"])
}

func TestRecordingsListAndDelete(t *testing.T) {
	a, srv := newTestApp(t, nil)
	dir := a.cfg.RecordingDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("aaaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp3"), []byte("bb"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	var list struct {
		Recordings []map[string]any `json:"recordings"`
		TotalBytes int64            `json:"total_bytes"`
	}
	code := getJSON(t, srv.URL+"/api/recordings", &list)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Recordings, 2)
	require.Equal(t, int64(6), list.TotalBytes)

	resp, _ := doRequest(t, http.MethodDelete, srv.URL+"/api/recordings?name=a.mp3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := os.Stat(filepath.Join(dir, "a.mp3"))
	require.True(t, os.IsNotExist(err))

	resp, _ = doRequest(t, http.MethodDelete, srv.URL+"/api/recordings?name=../../etc/passwd", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodDelete, srv.URL+"/api/recordings?name=missing.mp3", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogEndpoints(t *testing.T) {
	_, srv := newTestApp(t, nil)

	var resp struct {
		Lines []string `json:"lines"`
	}
	code := getJSON(t, srv.URL+"/api/log", &resp)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Lines)
	require.Empty(t, resp.Lines)

	r, body := doRequest(t, http.MethodDelete, srv.URL+"/api/log", "")
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.Equal(t, true, body["ok"])
}

func TestPositionUnavailableWithoutData(t *testing.T) {
	_, srv := newTestApp(t, nil)

	var resp map[string]any
	code := getJSON(t, srv.URL+"/api/position", &resp)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, resp["available"])
}

func TestMetricsEndpointServes(t *testing.T) {
	_, srv := newTestApp(t, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "hdrd_")
}

func TestHistoryAndBEREmptyByDefault(t *testing.T) {
	_, srv := newTestApp(t, nil)

	var hist struct {
		History []any `json:"history"`
	}
	code := getJSON(t, srv.URL+"/api/history", &hist)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, hist.History)
	require.Empty(t, hist.History)

	var ber struct {
		Values []float64 `json:"values"`
	}
	code = getJSON(t, srv.URL+"/api/ber", &ber)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, ber.Values)
	require.Empty(t, ber.Values)
}
