package window

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

func TestOpen_InitialState(t *testing.T) {
	w, err := Open("zod-run-1", t0, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.State() != StateOpen {
		t.Errorf("expected StateOpen, got %v", w.State())
	}
	if w.ID() != "zod-run-1" {
		t.Errorf("expected zod-run-1, got %s", w.ID())
	}
	if !w.Deadline().Equal(t0.Add(time.Minute)) {
		t.Errorf("unexpected deadline %v", w.Deadline())
	}
	if !w.End().IsZero() {
		t.Error("expected zero end while open")
	}
}

func TestOpen_RejectsNonPositiveDuration(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		if _, err := Open("x", t0, d); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("duration %v: expected ErrInvalidDuration, got %v", d, err)
		}
	}
}

func TestClose_OnlyOnce(t *testing.T) {
	w, _ := Open("x", t0, time.Second)
	end := t0.Add(time.Second)

	if err := w.Close(end); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if w.State() != StateClosed || !w.End().Equal(end) {
		t.Errorf("expected CLOSED at %v, got %v at %v", end, w.State(), w.End())
	}
	if err := w.Close(end); !errors.Is(err, ErrNotOpen) {
		t.Errorf("second close: expected ErrNotOpen, got %v", err)
	}
}

func TestAbort(t *testing.T) {
	w, _ := Open("x", t0, time.Second)

	if !w.Abort(t0) {
		t.Error("expected abort from OPEN to succeed")
	}
	if w.State() != StateAborted {
		t.Errorf("expected ABORTED, got %v", w.State())
	}
	if w.Abort(t0) {
		t.Error("expected second abort to report false")
	}
	if err := w.Close(t0); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected close after abort to fail, got %v", err)
	}
}

func TestAbort_AfterCloseIsNoop(t *testing.T) {
	w, _ := Open("x", t0, time.Second)
	w.Close(t0.Add(time.Second))

	if w.Abort(t0.Add(2 * time.Second)) {
		t.Error("expected abort after close to report false")
	}
	if w.State() != StateClosed {
		t.Errorf("expected CLOSED to stick, got %v", w.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateOpen, "OPEN"},
		{StateClosed, "CLOSED"},
		{StateAborted, "ABORTED"},
		{State(9), "UNKNOWN(9)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestGenerator_Next(t *testing.T) {
	gen := NewGenerator()

	tests := []struct {
		library string
		want    string
	}{
		{"Unvalidated", "unvalidated-run-1"},
		{"go-playground/validator", "go-playground-validator-run-2"},
		{"encoding/json", "encoding-json-run-3"},
		{"  santhosh-tekuri/jsonschema!", "santhosh-tekuri-jsonschema-run-4"},
	}
	for _, tt := range tests {
		if got := gen.Next(tt.library); got != tt.want {
			t.Errorf("Next(%q) = %s, want %s", tt.library, got, tt.want)
		}
	}
}

func TestGenerator_ThreadSafety(t *testing.T) {
	gen := NewGenerator()
	var wg sync.WaitGroup
	results := make(chan string, 1000)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				results <- gen.Next("lib")
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for id := range results {
		if seen[id] {
			t.Errorf("duplicate run ID generated: %s", id)
		}
		seen[id] = true
	}
	if len(seen) != 1000 {
		t.Errorf("expected 1000 unique IDs, got %d", len(seen))
	}
}

func TestStatus(t *testing.T) {
	w, _ := Open("ajv-run-2", t0, time.Minute)

	st := w.Status()
	if st.RunID != "ajv-run-2" || st.State != "OPEN" || st.End != nil {
		t.Errorf("unexpected open status %+v", st)
	}
	if !st.Start.Equal(t0) || !st.Deadline.Equal(t0.Add(time.Minute)) {
		t.Errorf("unexpected bounds %v..%v", st.Start, st.Deadline)
	}

	w.Abort(t0.Add(time.Second))
	st = w.Status()
	if st.State != "ABORTED" || st.End == nil || !st.End.Equal(t0.Add(time.Second)) {
		t.Errorf("unexpected aborted status %+v", st)
	}
}
