// Package telemetry defines the typed event structs that flow over the
// WebSocket connection between hdrd and its clients. Every event shares
// the same envelope: a type tag, an RFC 3339 nano timestamp, and the
// component that produced it.
package telemetry

import "time"

// EventType identifies the kind of WebSocket event.
type EventType string

const (
	EventHeartbeat  EventType = "heartbeat"
	EventState      EventType = "state"
	EventLog        EventType = "log"
	EventNowPlaying EventType = "now_playing"
	EventBER        EventType = "ber"
	EventPosition   EventType = "position"
	EventHistory    EventType = "history"
	EventRecording  EventType = "recording"
	EventProcess    EventType = "process"
	EventError      EventType = "error"
)

// Event is the base envelope shared by every event type.
type Event struct {
	Type      EventType `json:"type"`
	TS        string    `json:"ts"`
	Component string    `json:"component,omitempty"`
}

// Stamp builds a ready-to-embed envelope with the current timestamp.
func Stamp(t EventType, component string) Event {
	return Event{Type: t, TS: NowTS(), Component: component}
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching the
// timestamp format used across all events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Heartbeat is sent periodically so clients can detect connectivity and
// monitor daemon uptime.
type Heartbeat struct {
	Event
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// StateTransition is emitted whenever the session moves between states
// (e.g. idle -> starting -> running).
type StateTransition struct {
	Event
	From string `json:"from"`
	To   string `json:"to"`
}

// LogLine carries a human-readable log message at a severity level.
type LogLine struct {
	Event
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NowPlaying is emitted when any metadata field changes. DisplayArtist
// differs from Artist only when the cosmetic override applies.
type NowPlaying struct {
	Event
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	DisplayArtist string `json:"display_artist"`
	Album         string `json:"album"`
}

// BERSample reports one bit-error-rate reading, already converted to
// percent, along with the recommended plot ceiling.
type BERSample struct {
	Event
	Percent    float64 `json:"percent"`
	UpperBound float64 `json:"upper_bound"`
}

// Position reports the station's offset from the operator whenever a
// station location line is parsed.
type Position struct {
	Event
	HorizontalM float64 `json:"horizontal_m"`
	BearingDeg  float64 `json:"bearing_deg"`
	Cardinal    string  `json:"cardinal"`
	VerticalM   float64 `json:"vertical_m"`
	Horizontal  string  `json:"horizontal"`
	Vertical    string  `json:"vertical"`
}

// HistoryEntry is emitted when a new song transition lands in the log.
type HistoryEntry struct {
	Event
	Time   string `json:"time"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// Recording reports recording state changes and the 1-second elapsed
// tick while a recording is active.
type Recording struct {
	Event
	Active         bool   `json:"active"`
	File           string `json:"file,omitempty"`
	ElapsedSeconds int64  `json:"elapsed_s"`
	Elapsed        string `json:"elapsed,omitempty"`
}

// ProcessEvent reports a classified exit or runtime fault for one of
// the managed processes (receiver, player, recorder).
type ProcessEvent struct {
	Event
	Role   string `json:"role"`
	Class  string `json:"class,omitempty"`
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

// ErrorEvent surfaces a user-visible failure such as a spawn error or
// an unexpected receiver exit.
type ErrorEvent struct {
	Event
	Message string `json:"message"`
}
