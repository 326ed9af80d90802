// Package replay is an in-process bus that feeds recorded or generated
// payloads at a steady rate. Every connection starts its source from the
// beginning, so each run sees the same traffic.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"validator-bench/internal/bus"
	"validator-bench/internal/loadgen"
)

// Driver is the driver name used in logs and errors.
const Driver = "replay"

// DefaultTopic is used for payloads whose origin topic is unknown.
const DefaultTopic = "replay"

// Source yields messages in delivery order. ok=false ends the stream.
type Source interface {
	Next() (m bus.Message, ok bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (bus.Message, bool)

// Next calls f.
func (f SourceFunc) Next() (bus.Message, bool) { return f() }

// Messages returns a source over msgs, repeated forever when loop is set.
func Messages(msgs []bus.Message, loop bool) Source {
	i := 0
	return SourceFunc(func() (bus.Message, bool) {
		if i >= len(msgs) {
			if !loop || len(msgs) == 0 {
				return bus.Message{}, false
			}
			i = 0
		}
		m := msgs[i]
		i++
		return m, true
	})
}

// Generated returns an endless source backed by a fresh load generator.
func Generated(seed uint64, gateways int) Source {
	g := loadgen.New(seed, gateways)
	return SourceFunc(func() (bus.Message, bool) {
		topic, payload := g.Next()
		return bus.Message{Topic: topic, Payload: payload}, true
	})
}

// ReadFile loads newline-delimited payloads. Blank lines are skipped;
// other bytes, including control characters, are kept as recorded.
func ReadFile(path string) ([]bus.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()

	var msgs []bus.Message
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		msgs = append(msgs, bus.Message{Topic: DefaultTopic, Payload: append([]byte(nil), line...)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}
	return msgs, nil
}

// Bus replays a source on every connection.
type Bus struct {
	newSource func() (Source, error)
	interval  time.Duration
	queueSize int
}

// New returns a replay bus. newSource is called once per connection;
// interval spaces deliveries, zero delivers as fast as the run consumes.
func New(newSource func() (Source, error), interval time.Duration, cfg bus.Config) *Bus {
	return &Bus{newSource: newSource, interval: interval, queueSize: cfg.QueueLen()}
}

// Connect implements bus.Bus.
func (b *Bus) Connect(ctx context.Context) (bus.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, &bus.TransportError{Driver: Driver, Op: "connect", Err: err}
	}
	src, err := b.newSource()
	if err != nil {
		return nil, &bus.TransportError{Driver: Driver, Op: "connect", Err: err}
	}
	return &Conn{
		src:      src,
		interval: b.interval,
		queue:    bus.NewQueue(b.queueSize),
		stop:     make(chan struct{}),
	}, nil
}

// Conn is one replay of the source.
type Conn struct {
	src       Source
	interval  time.Duration
	queue     *bus.Queue
	stop      chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
	started   atomic.Bool
	delivered atomic.Uint64
}

// SubscribeAll starts the feed.
func (c *Conn) SubscribeAll(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}
	c.wg.Add(1)
	go c.feed()
	return nil
}

func (c *Conn) feed() {
	defer c.wg.Done()

	var tick <-chan time.Time
	if c.interval > 0 {
		t := time.NewTicker(c.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		if tick != nil {
			select {
			case <-tick:
			case <-c.stop:
				return
			}
		}
		m, ok := c.src.Next()
		if !ok {
			return
		}
		if !c.queue.Push(m) {
			return
		}
		c.delivered.Add(1)
	}
}

// Messages implements bus.Conn.
func (c *Conn) Messages() <-chan bus.Message {
	return c.queue.C()
}

// Delivered returns how many messages were enqueued for the run.
func (c *Conn) Delivered() uint64 {
	return c.delivered.Load()
}

// Close stops the feed and closes the queue.
func (c *Conn) Close() error {
	c.once.Do(func() {
		close(c.stop)
		c.queue.Shutdown()
		c.wg.Wait()
	})
	return nil
}
