package pipeline

import (
	"fmt"
	"time"
)

// State is the session lifecycle state. Recording is deliberately not a
// state of its own: it is a flag that is only meaningful while Running.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// legalTransitions is the session lifecycle graph. Starting can fall
// straight back to Idle when a spawn fails and the rollback has nothing
// to wait for.
var legalTransitions = map[State][]State{
	StateIdle:     {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateIdle},
	StateRunning:  {StateStopping},
	StateStopping: {StateIdle},
}

// LegalTransition reports whether the session may move from one state
// to another.
func LegalTransition(from, to State) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Session holds the parameters and flags of the current tuning session.
// A fresh ID is assigned each time the receiver starts.
type Session struct {
	State        State
	Recording    bool
	FrequencyMHz float64
	Program      int
	Host         string
	Port         int
	ID           string
	StartedAt    time.Time
}

// StartParams are the caller-supplied tuning inputs for a session.
type StartParams struct {
	FrequencyMHz float64
	Program      int
	Host         string
	Port         int
}

// Validate checks the tuning inputs. Failures come back as
// *ValidationError and mean nothing has been spawned.
func (p StartParams) Validate() error {
	if !(p.FrequencyMHz > 0) {
		return &ValidationError{Reason: "frequency must be a number greater than zero"}
	}
	if p.Program < 0 || p.Program > 3 {
		return &ValidationError{Reason: "program must be between 0 and 3"}
	}
	if p.Host != "" {
		if p.Port == 0 {
			return &ValidationError{Reason: "port is required when a remote rtl_tcp host is set"}
		}
		if p.Port < 1 || p.Port > 65535 {
			return &ValidationError{Reason: "port must be between 1 and 65535"}
		}
	}
	return nil
}
