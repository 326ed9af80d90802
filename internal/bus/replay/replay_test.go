package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"validator-bench/internal/bus"
)

func collect(t *testing.T, c bus.Conn, n int, timeout time.Duration) []bus.Message {
	t.Helper()
	var got []bus.Message
	deadline := time.After(timeout)
	for len(got) < n {
		select {
		case m, ok := <-c.Messages():
			if !ok {
				return got
			}
			got = append(got, m)
		case <-deadline:
			return got
		}
	}
	return got
}

func TestMessages_OnceAndLoop(t *testing.T) {
	msgs := []bus.Message{{Payload: []byte("a")}, {Payload: []byte("b")}}

	once := Messages(msgs, false)
	for _, want := range []string{"a", "b"} {
		m, ok := once.Next()
		if !ok || string(m.Payload) != want {
			t.Fatalf("expected %q, got %q ok=%v", want, m.Payload, ok)
		}
	}
	if _, ok := once.Next(); ok {
		t.Error("expected source to end")
	}

	loop := Messages(msgs, true)
	var got string
	for i := 0; i < 5; i++ {
		m, _ := loop.Next()
		got += string(m.Payload)
	}
	if got != "ababa" {
		t.Errorf("expected ababa, got %s", got)
	}

	if _, ok := Messages(nil, true).Next(); ok {
		t.Error("expected empty looping source to end")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.ndjson")
	content := "{\"msg\":\"alive\"}\n\n   \n\x00{\"msg\":\"advData\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	msgs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Payload[0] != 0x00 || msgs[1].Topic != DefaultTopic {
		t.Errorf("expected control byte and default topic preserved, got %+v", msgs[1])
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBus_EachConnectionReplaysFromStart(t *testing.T) {
	msgs := []bus.Message{{Payload: []byte("1")}, {Payload: []byte("2")}, {Payload: []byte("3")}}
	b := New(func() (Source, error) { return Messages(msgs, false), nil }, 0, bus.Config{})

	for run := 0; run < 2; run++ {
		c, err := b.Connect(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if err := c.SubscribeAll(context.Background()); err != nil {
			t.Fatal(err)
		}

		got := collect(t, c, 3, time.Second)
		if len(got) != 3 || string(got[0].Payload) != "1" || string(got[2].Payload) != "3" {
			t.Errorf("run %d: unexpected replay %v", run, got)
		}
		if d := c.(*Conn).Delivered(); d != 3 {
			t.Errorf("run %d: expected 3 delivered, got %d", run, d)
		}
		c.Close()
	}
}

func TestBus_IntervalPacesDelivery(t *testing.T) {
	b := New(func() (Source, error) { return Generated(1, 2), nil }, 20*time.Millisecond, bus.Config{})
	c, _ := b.Connect(context.Background())
	c.SubscribeAll(context.Background())
	defer c.Close()

	time.Sleep(110 * time.Millisecond)
	c.Close()

	got := collect(t, c, 100, 100*time.Millisecond)
	if len(got) < 3 || len(got) > 7 {
		t.Errorf("expected about 5 paced deliveries, got %d", len(got))
	}
}

func TestBus_SourceErrorIsTransportError(t *testing.T) {
	cause := errors.New("capture unreadable")
	b := New(func() (Source, error) { return nil, cause }, 0, bus.Config{})

	_, err := b.Connect(context.Background())

	var te *bus.TransportError
	if !errors.As(err, &te) || !errors.Is(err, cause) {
		t.Fatalf("expected TransportError wrapping cause, got %v", err)
	}
}

func TestConn_CloseStopsBlockedFeed(t *testing.T) {
	b := New(func() (Source, error) { return Generated(1, 1), nil }, 0, bus.Config{QueueSize: 1})
	c, _ := b.Connect(context.Background())
	c.SubscribeAll(context.Background())

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close blocked on a full queue")
	}
}
