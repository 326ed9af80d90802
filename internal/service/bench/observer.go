package bench

import (
	"sync"
	"time"

	"validator-bench/internal/service/window"
)

// Observer is notified of run lifecycle events. Calls happen on the
// orchestrator goroutine, outside the measurement window.
type Observer interface {
	RunStarted(library string)
	RunFinished(r Result)
	RunFailed(library string, err error)
}

// Observers fans events out in order.
type Observers []Observer

// RunStarted implements Observer.
func (o Observers) RunStarted(library string) {
	for _, obs := range o {
		obs.RunStarted(library)
	}
}

// RunFinished implements Observer.
func (o Observers) RunFinished(r Result) {
	for _, obs := range o {
		obs.RunFinished(r)
	}
}

// RunFailed implements Observer.
func (o Observers) RunFailed(library string, err error) {
	for _, obs := range o {
		obs.RunFailed(library, err)
	}
}

// Store keeps the results of the current benchmark for the HTTP API.
type Store struct {
	mu       sync.RWMutex
	results  []Result
	updated  time.Time
	failed   string
	complete bool
	window   *window.Window
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// RunStarted implements Observer.
func (s *Store) RunStarted(string) {}

// RunFinished appends r.
func (s *Store) RunFinished(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	s.updated = time.Now()
}

// RunFailed records the failure; results gathered so far are discarded.
func (s *Store) RunFailed(library string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	s.failed = library + ": " + err.Error()
	s.updated = time.Now()
}

// Track records w as the current run window.
func (s *Store) Track(w *window.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = w
	s.updated = time.Now()
}

// Complete marks the benchmark as finished.
func (s *Store) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete = true
	s.updated = time.Now()
}

// Snapshot is a point-in-time copy of a Store.
type Snapshot struct {
	Results  []Result  `json:"results"`
	Complete bool      `json:"complete"`
	Failure  string    `json:"failure,omitempty"`
	Updated  time.Time `json:"updated"`
	// Window is the most recent run window, or nil before the first run.
	Window *window.Status `json:"window,omitempty"`
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	snap := Snapshot{Results: out, Complete: s.complete, Failure: s.failed, Updated: s.updated}
	if s.window != nil {
		st := s.window.Status()
		snap.Window = &st
	}
	return snap
}
