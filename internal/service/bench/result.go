// Package bench runs validators against live bus traffic and measures
// them. A Controller drives one run, Collect turns two resource
// snapshots into a Result and an Orchestrator sequences the runs.
package bench

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfiguration marks a benchmark that cannot produce meaningful
// numbers, such as a non-positive window. It is reported before any run
// begins.
var ErrConfiguration = errors.New("invalid benchmark configuration")

// Result is the outcome of one completed run. It is never modified
// after the run returns it.
type Result struct {
	Library           string    `json:"library"`
	RunID             string    `json:"runId"`
	StartedAt         time.Time `json:"startedAt"`
	ElapsedSeconds    float64   `json:"elapsedSeconds"`
	MessagesReceived  uint64    `json:"messagesReceived"`
	MessagesProcessed uint64    `json:"messagesProcessed"`
	RecordsDispatched uint64    `json:"recordsDispatched"`
	ValidationErrors  uint64    `json:"validationErrors"`
	MessagesPerSecond float64   `json:"messagesPerSecond"`
	CPUUserMs         float64   `json:"cpuUserTimeMs"`
	CPUSystemMs       float64   `json:"cpuSystemTimeMs"`
	// MemoryUsed is the Go heap delta over the window. It may be negative.
	MemoryUsed int64 `json:"memoryUsedBytes"`
	// RSSDelta is the resident set delta, zero where /proc is unavailable.
	RSSDelta int64 `json:"rssDeltaBytes"`
}

// Elapsed returns the window length as a duration.
func (r Result) Elapsed() time.Duration {
	return time.Duration(r.ElapsedSeconds * float64(time.Second))
}

// RunError reports the run that aborted a benchmark.
type RunError struct {
	Library string
	RunID   string
	Err     error
}

func (e *RunError) Error() string {
	if e.RunID == "" {
		return fmt.Sprintf("run %q: %v", e.Library, e.Err)
	}
	return fmt.Sprintf("run %q (%s): %v", e.Library, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
