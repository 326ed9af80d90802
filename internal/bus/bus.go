// Package bus defines the message bus contract the benchmark consumes.
//
// A Bus hands out dedicated connections; every connection subscribes to
// all topics and feeds a queue that the run drains on its own goroutine,
// so delivery order is preserved without concurrent validation.
package bus

import (
	"context"
	"fmt"
	"time"
)

// Message is one raw frame received from the broker.
type Message struct {
	Topic   string
	Payload []byte
}

// Bus opens broker connections.
type Bus interface {
	// Connect opens a new connection owned by the caller.
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a single broker connection.
type Conn interface {
	// SubscribeAll subscribes to every topic. Messages are delivered on
	// Messages() from then on.
	SubscribeAll(ctx context.Context) error

	// Messages returns the delivery queue. It is closed once the
	// connection has shut down and no further sends can happen.
	Messages() <-chan Message

	// Close stops delivery and disconnects. Messages already queued may
	// still be read. Close is idempotent.
	Close() error
}

// Publisher sends raw payloads to a topic. It is used by the load
// generator, not by benchmark runs.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}

// Config holds broker connection settings shared by the drivers.
type Config struct {
	BrokerURI      string
	Username       string
	Password       string
	ClientID       string
	Topics         []string
	QueueSize      int
	ConnectTimeout time.Duration
}

// DefaultQueueSize is used when Config.QueueSize is not positive.
const DefaultQueueSize = 1024

// QueueLen returns the effective delivery queue length.
func (c Config) QueueLen() int {
	if c.QueueSize <= 0 {
		return DefaultQueueSize
	}
	return c.QueueSize
}

// TransportError reports a connection-level failure. It is the only
// bus error that aborts a benchmark.
type TransportError struct {
	Driver string
	Op     string // connect, subscribe, publish
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Driver, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
