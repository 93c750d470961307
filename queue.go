package osmfilter

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultQueueCapacity is the number of matches buffered between the scan
// workers and the renderer.
const DefaultQueueCapacity = 10

// PublishResult is the outcome of Queue.Publish.
type PublishResult uint8

const (
	// Published: the record was handed to the queue.
	Published PublishResult = iota
	// ReceiverGone: the consumer has stopped draining. The record is dropped
	// and the caller carries on; this is not an error.
	ReceiverGone
	// Canceled: the context ended before the record could be queued.
	Canceled
)

func (p PublishResult) String() string {
	switch p {
	case Published:
		return "published"
	case ReceiverGone:
		return "receiver gone"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Queue is a bounded multi-producer, single-consumer hand-off of matched
// records. Producers block while it is full, until the consumer either
// takes a record or abandons the queue.
type Queue struct {
	ch   chan *Record
	done chan struct{}

	abandonOnce sync.Once
	closeOnce   sync.Once

	dropped atomic.Uint64
}

// NewQueue creates a Queue that buffers up to capacity records.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		ch:   make(chan *Record, capacity),
		done: make(chan struct{}),
	}
}

// Publish hands r to the consumer.
func (q *Queue) Publish(ctx context.Context, r *Record) PublishResult {
	select {
	case <-q.done:
		q.dropped.Add(1)
		return ReceiverGone
	default:
	}
	select {
	case q.ch <- r:
		return Published
	case <-q.done:
		q.dropped.Add(1)
		return ReceiverGone
	case <-ctx.Done():
		return Canceled
	}
}

// Receive blocks until a record is available. It returns false once the
// producers have called CloseSend and the buffer is empty.
func (q *Queue) Receive() (*Record, bool) {
	r, ok := <-q.ch
	return r, ok
}

// CloseSend signals that no more records will be published. It must only be
// called after every producer has returned.
func (q *Queue) CloseSend() {
	q.closeOnce.Do(func() { close(q.ch) })
}

// Abandon is called by the consumer when it stops draining. Later and
// blocked publishes return ReceiverGone.
func (q *Queue) Abandon() {
	q.abandonOnce.Do(func() { close(q.done) })
}

// Dropped returns the number of publishes that found the receiver gone.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
