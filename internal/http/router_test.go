package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"validator-bench/internal/service/bench"
	"validator-bench/internal/service/window"
)

func newTestRouter(ready bool) (http.Handler, *bench.Store) {
	store := bench.NewStore()
	h := NewRouter(Deps{
		Results: store,
		Ready:   func() bool { return ready },
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})
	return h, store
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name  string
		ready bool
		path  string
		want  int
	}{
		{"liveness", false, "/v1/liveness", http.StatusOK},
		{"ready", true, "/v1/readiness", http.StatusOK},
		{"not ready", false, "/v1/readiness", http.StatusServiceUnavailable},
		{"metrics", true, "/metrics", http.StatusOK},
		{"unknown", true, "/v1/hello", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(tt.ready)
			if got := get(h, tt.path).Code; got != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}

func TestResults(t *testing.T) {
	h, store := newTestRouter(true)
	store.RunFinished(bench.Result{Library: "encoding/json", RunID: "encoding-json-run-1", MessagesProcessed: 10})
	store.Complete()

	rec := get(h, "/v1/results")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap bench.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.Complete || len(snap.Results) != 1 || snap.Results[0].MessagesProcessed != 10 {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	rec = get(h, "/v1/results/encoding-json-run-1")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 by run ID, got %d", rec.Code)
	}
	if got := get(h, "/v1/results/zod").Code; got != http.StatusNotFound {
		t.Errorf("expected 404 for unknown library, got %d", got)
	}
}

func TestResults_CurrentWindow(t *testing.T) {
	h, store := newTestRouter(true)
	w, err := window.Open("ajv-run-1", time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("open window: %v", err)
	}
	store.Track(w)

	var snap bench.Snapshot
	if err := json.Unmarshal(get(h, "/v1/results").Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Window == nil || snap.Window.RunID != "ajv-run-1" || snap.Window.State != "OPEN" {
		t.Errorf("unexpected window %+v", snap.Window)
	}
}
