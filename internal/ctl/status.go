package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name          string         `json:"name"`
	Version       string         `json:"version"`
	State         string         `json:"state"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	DataRoot      string         `json:"data_root"`
	RecordingDir  string         `json:"recording_dir"`
	WSClients     int            `json:"ws_clients"`
	Session       SessionStatus  `json:"session"`
	Disk          map[string]any `json:"disk"`
}

// SessionStatus mirrors the pipeline block inside /api/status.
type SessionStatus struct {
	State            string         `json:"state"`
	Recording        bool           `json:"recording"`
	FrequencyMHz     float64        `json:"frequency_mhz"`
	Program          int            `json:"program"`
	Host             string         `json:"host"`
	Port             int            `json:"port"`
	SessionID        string         `json:"session_id"`
	StartedAt        string         `json:"started_at"`
	NowPlaying       NowPlayingInfo `json:"now_playing"`
	BER              string         `json:"ber"`
	RecordingFile    string         `json:"recording_file"`
	RecordingElapsed string         `json:"recording_elapsed"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(s)
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)
	stateStr := colorize(stateColor(s.Session.State), s.Session.State)

	fmt.Println()
	fmt.Println(header("  HDRD STATUS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	fmt.Printf("  %-12s %s %s\n", colorize(dim, "Daemon:"), s.Name, colorize(dim, s.Version))
	fmt.Printf("  %-12s %s\n", colorize(dim, "State:"), stateStr)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Uptime:"), uptime)

	if s.Session.FrequencyMHz > 0 {
		tuned := fmt.Sprintf("%g MHz program %d", s.Session.FrequencyMHz, s.Session.Program)
		if s.Session.Host != "" {
			tuned += fmt.Sprintf(" via %s:%d", s.Session.Host, s.Session.Port)
		}
		fmt.Printf("  %-12s %s\n", colorize(dim, "Tuned:"), tuned)
	}
	if line := nowPlayingLine(s.Session.NowPlaying); line != "" {
		fmt.Printf("  %-12s %s\n", colorize(dim, "Playing:"), line)
	}
	if s.Session.BER != "" {
		fmt.Printf("  %-12s %s\n", colorize(dim, "BER:"), s.Session.BER)
	}
	if s.Session.Recording {
		rec := s.Session.RecordingFile
		if s.Session.RecordingElapsed != "" {
			rec += " (" + s.Session.RecordingElapsed + ")"
		}
		fmt.Printf("  %-12s %s %s\n", colorize(dim, "Recording:"), colorize(red, "REC"), rec)
	}

	fmt.Printf("  %-12s %d\n", colorize(dim, "Clients:"), s.WSClients)
	if avail, ok := s.Disk["available_bytes"].(float64); ok {
		fmt.Printf("  %-12s %s free\n", colorize(dim, "Disk:"), formatBytes(int64(avail)))
	}
	fmt.Printf("  %-12s %s\n", colorize(dim, "Host:"), baseURL)
	fmt.Println()

	return nil
}
