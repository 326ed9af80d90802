// Package window manages the measurement window of a benchmark run.
package window

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State represents the lifecycle state of a window.
type State int

const (
	// StateOpen - the run is measuring.
	StateOpen State = iota
	// StateClosed - the timer fired and results were finalized.
	StateClosed
	// StateAborted - the run ended early (cancellation or failure);
	// its counters must not be reported.
	StateAborted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	case StateAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true for CLOSED and ABORTED.
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateAborted
}

// Errors for invalid transitions.
var (
	ErrNotOpen         = errors.New("window is not open")
	ErrInvalidDuration = errors.New("window duration must be positive")
)

// Window is the interval [start, start+duration) of one run.
//
// State transitions:
//
//	OPEN ──Close()──→ CLOSED
//	  │
//	  └───Abort()──→ ABORTED
//
// Both terminal states are final.
type Window struct {
	mu       sync.RWMutex
	id       string
	start    time.Time
	duration time.Duration
	end      time.Time
	state    State
}

// Status is a point-in-time view of a window.
type Status struct {
	RunID    string     `json:"runId"`
	State    string     `json:"state"`
	Start    time.Time  `json:"start"`
	Deadline time.Time  `json:"deadline"`
	End      *time.Time `json:"end,omitempty"`
}

// Open creates a window in OPEN state.
func Open(id string, start time.Time, duration time.Duration) (*Window, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}
	return &Window{id: id, start: start, duration: duration, state: StateOpen}, nil
}

// ID returns the run ID.
func (w *Window) ID() string {
	return w.id
}

// Start returns when the window opened.
func (w *Window) Start() time.Time {
	return w.start
}

// Duration returns the configured length.
func (w *Window) Duration() time.Duration {
	return w.duration
}

// Deadline returns start+duration.
func (w *Window) Deadline() time.Time {
	return w.start.Add(w.duration)
}

// State returns the current state.
func (w *Window) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// End returns when the window left OPEN, or the zero time.
func (w *Window) End() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.end
}

// Close transitions to CLOSED at end.
func (w *Window) Close(end time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateOpen {
		return fmt.Errorf("%w: %s", ErrNotOpen, w.state)
	}
	w.state = StateClosed
	w.end = end
	return nil
}

// Abort transitions to ABORTED. Returns false if already terminal.
func (w *Window) Abort(end time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.IsTerminal() {
		return false
	}
	w.state = StateAborted
	w.end = end
	return true
}

// Status returns the current view of w.
func (w *Window) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	st := Status{
		RunID:    w.id,
		State:    w.state.String(),
		Start:    w.start,
		Deadline: w.start.Add(w.duration),
	}
	if w.state.IsTerminal() {
		end := w.end
		st.End = &end
	}
	return st
}
