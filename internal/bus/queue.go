package bus

import "sync"

// Queue is the delivery channel shared by the drivers. Push may be called
// from any goroutine until Shutdown; afterwards it drops messages, and the
// channel is closed exactly once with no send racing the close.
type Queue struct {
	ch     chan Message
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewQueue returns a queue buffering up to size messages.
func NewQueue(size int) *Queue {
	return &Queue{
		ch:   make(chan Message, size),
		done: make(chan struct{}),
	}
}

// C returns the receive side of the queue.
func (q *Queue) C() <-chan Message {
	return q.ch
}

// Push enqueues m, blocking while the queue is full. It reports false if
// the queue was shut down before m could be enqueued.
func (q *Queue) Push(m Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- m:
		return true
	case <-q.done:
		return false
	}
}

// Shutdown unblocks pending pushes and closes the channel.
func (q *Queue) Shutdown() {
	q.once.Do(func() {
		close(q.done)
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
}
