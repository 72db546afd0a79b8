package ctl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// WatchOptions controls the watch command behavior.
type WatchOptions struct {
	Filter []string // event types to show (empty = all)
	JSON   bool     // output raw JSON per event
}

// Watch connects to the daemon's WebSocket endpoint and streams events to
// the terminal in a human-readable format until interrupted.
func Watch(baseURL string, opts WatchOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = ""

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if !opts.JSON {
		fmt.Println()
		fmt.Printf("  %s %s\n", colorize(green, "connected"), colorize(dim, u.String()))
		if len(opts.Filter) > 0 {
			fmt.Printf("  %s %s\n", colorize(dim, "filter:"), colorize(dim, strings.Join(opts.Filter, ", ")))
		}
		fmt.Println(colorize(dim, "  "+strings.Repeat("─", 50)))
		fmt.Println()
	}

	// Build a filter set for O(1) lookup. The hello snapshot always passes
	// so a filtered watch still opens with the current state.
	filterSet := make(map[string]bool, len(opts.Filter))
	for _, f := range opts.Filter {
		filterSet[f] = true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}

			if len(filterSet) > 0 {
				var ev map[string]any
				if err := json.Unmarshal(msg, &ev); err == nil {
					evType, _ := ev["type"].(string)
					if evType != "hello" && !filterSet[evType] {
						continue
					}
				}
			}

			if opts.JSON {
				fmt.Println(string(msg))
			} else {
				renderEvent(msg)
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		if !opts.JSON {
			fmt.Println()
			fmt.Println(colorize(dim, "  disconnecting..."))
		}
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(1*time.Second),
		)
		return nil
	case <-done:
		return nil
	}
}

// renderEvent parses a JSON event and prints it in a human-friendly format.
// Falls back to raw JSON for unrecognized event types.
func renderEvent(raw []byte) {
	var ev map[string]any
	if err := json.Unmarshal(raw, &ev); err != nil {
		fmt.Printf("  %s\n", string(raw))
		return
	}

	evType, _ := ev["type"].(string)
	ts := formatEventTime(ev)

	switch evType {
	case "hello":
		version, _ := ev["version"].(string)
		fmt.Printf("  %s %s  %s\n", colorize(dim, ts), colorize(bold, "HELLO"), colorize(dim, "hdrd "+version))
		if status, ok := ev["status"].(map[string]any); ok {
			state, _ := status["state"].(string)
			fmt.Printf("    %-12s %s\n", colorize(dim, "state:"), colorize(stateColor(state), state))
			if freq, ok := status["frequency_mhz"].(float64); ok && freq > 0 {
				prog, _ := status["program"].(float64)
				fmt.Printf("    %-12s %g MHz P%.0f\n", colorize(dim, "tuned:"), freq, prog)
			}
		}

	case "heartbeat":
		// Heartbeats are noisy, so they get a single dimmed line.
		state, _ := ev["state"].(string)
		uptime, _ := ev["uptime_seconds"].(float64)
		uptimeStr := formatDuration(time.Duration(uptime) * time.Second)
		fmt.Printf("  %s %s  %s  up %s\n",
			colorize(dim, ts),
			colorize(dim, "heartbeat"),
			colorize(stateColor(state), state),
			colorize(dim, uptimeStr),
		)

	case "state":
		from, _ := ev["from"].(string)
		to, _ := ev["to"].(string)
		fmt.Printf("  %s %s  %s %s %s\n",
			colorize(dim, ts),
			colorize(bold, "STATE"),
			colorize(stateColor(from), from),
			colorize(dim, "->"),
			colorize(stateColor(to), to),
		)

	case "log":
		level, _ := ev["level"].(string)
		message, _ := ev["message"].(string)
		component, _ := ev["component"].(string)
		levelStr := formatLogLevel(level)
		src := ""
		if component != "" {
			src = colorize(dim, "["+component+"] ")
		}
		fmt.Printf("  %s %s  %s%s\n", colorize(dim, ts), levelStr, src, message)

	case "now_playing":
		title, _ := ev["title"].(string)
		artist, _ := ev["display_artist"].(string)
		if artist == "" {
			artist, _ = ev["artist"].(string)
		}
		album, _ := ev["album"].(string)
		line := title
		if artist != "" {
			if line != "" {
				line += " - "
			}
			line += artist
		}
		if album != "" {
			line += colorize(dim, "  ("+album+")")
		}
		fmt.Printf("  %s %s  %s\n", colorize(dim, ts), colorize(cyan, "PLAYING"), line)

	case "ber":
		pct, _ := ev["percent"].(float64)
		fmt.Printf("  %s %s  %.3f %%\n", colorize(dim, ts), colorize(dim, "ber"), pct)

	case "position":
		horizontal, _ := ev["horizontal"].(string)
		bearing, _ := ev["bearing_deg"].(float64)
		fmt.Printf("  %s %s  %s %s\n",
			colorize(dim, ts),
			colorize(blue, "POSITION"),
			horizontal,
			colorize(dim, fmt.Sprintf("(bearing %.0f°)", bearing)),
		)

	case "history":
		title, _ := ev["title"].(string)
		artist, _ := ev["artist"].(string)
		fmt.Printf("  %s %s  %s - %s\n", colorize(dim, ts), colorize(dim, "history"), title, artist)

	case "recording":
		active, _ := ev["active"].(bool)
		file, _ := ev["file"].(string)
		if active {
			elapsed, _ := ev["elapsed"].(string)
			suffix := ""
			if elapsed != "" {
				suffix = "  " + colorize(dim, elapsed)
			}
			fmt.Printf("  %s %s  %s%s\n", colorize(dim, ts), colorize(red, "REC"), file, suffix)
		} else {
			fmt.Printf("  %s %s  %s\n", colorize(dim, ts), colorize(green, "SAVED"), file)
		}

	case "process":
		role, _ := ev["role"].(string)
		detail, _ := ev["detail"].(string)
		class, _ := ev["class"].(string)
		label := colorize(dim, "process")
		if class == "abnormal" {
			label = colorize(red, "PROCESS")
		}
		fmt.Printf("  %s %s  %s: %s\n", colorize(dim, ts), label, role, detail)

	case "error":
		message, _ := ev["message"].(string)
		fmt.Printf("  %s %s  %s\n", colorize(dim, ts), colorize(red, "ERROR"), message)

	default:
		// Unknown event types are dumped as indented JSON so nothing is lost.
		pretty, err := json.MarshalIndent(ev, "  ", "  ")
		if err != nil {
			fmt.Printf("  %s\n", string(raw))
			return
		}
		fmt.Printf("  %s\n", string(pretty))
	}
}

// formatEventTime extracts and shortens the timestamp from an event.
func formatEventTime(ev map[string]any) string {
	tsRaw, ok := ev["ts"].(string)
	if !ok {
		return "        "
	}
	t, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return tsRaw[:10]
	}
	return t.Local().Format("15:04:05")
}

// formatLogLevel returns a colored, fixed-width log level label.
func formatLogLevel(level string) string {
	switch level {
	case "info":
		return colorize(green, "INFO ")
	case "warn":
		return colorize(yellow, "WARN ")
	case "error":
		return colorize(red, "ERROR")
	default:
		return padRight(level, 5)
	}
}
