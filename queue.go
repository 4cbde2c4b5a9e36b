package tinyhttpd

import (
	"context"
	"time"
)

// QueueItem is one entry in the Message Queue (§3, §4.6): either a
// successfully parsed Request, an IoError observed while trying to parse
// one, or an Unblock sentinel used purely to wake one blocked consumer
// during graceful shutdown — it carries no payload and should not be
// treated as real work.
type QueueItem struct {
	Req     *Request
	Err     error
	Unblock bool
}

// Queue is the bounded, blocking MPSC between accept/parse goroutines and
// consumers (§4.6). A Go buffered channel already provides "blocking push
// on full, blocking pop on empty, FIFO across producers" natively — the
// one thing a plain channel doesn't give you is "wake exactly one blocked
// consumer without it being mistaken for one of your own producers", which
// is why Unblock exists as a distinguishable, explicitly-sized signal
// rather than closing the channel outright (closing would wake *every*
// blocked consumer and make the channel unusable afterward). This is the
// one core component built entirely on the standard library.
type Queue struct {
	ch     chan QueueItem
	closed chan struct{}
}

// NewQueue returns a Queue that blocks producers once capacity items are
// buffered.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		ch:     make(chan QueueItem, capacity),
		closed: make(chan struct{}),
	}
}

// Push enqueues item, blocking if the queue is full until space frees or
// the queue is closed.
func (q *Queue) Push(item QueueItem) error {
	select {
	case <-q.closed:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- item:
		return nil
	case <-q.closed:
		return ErrQueueClosed
	}
}

// Pop blocks until an item is available or the queue is closed.
func (q *Queue) Pop() (QueueItem, error) {
	select {
	case item, ok := <-q.ch:
		if !ok {
			return QueueItem{}, ErrQueueClosed
		}
		return item, nil
	case <-q.closed:
		// Drain anything already buffered before reporting closed, so a
		// final flush of in-flight requests isn't silently dropped.
		select {
		case item, ok := <-q.ch:
			if ok {
				return item, nil
			}
		default:
		}
		return QueueItem{}, ErrQueueClosed
	}
}

// PopTimeout blocks for at most d for an available item.
func (q *Queue) PopTimeout(d time.Duration) (QueueItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return q.PopContext(ctx)
}

// PopContext blocks until an item is available, ctx is done, or the queue
// is closed.
func (q *Queue) PopContext(ctx context.Context) (QueueItem, error) {
	select {
	case item, ok := <-q.ch:
		if !ok {
			return QueueItem{}, ErrQueueClosed
		}
		return item, nil
	case <-q.closed:
		return QueueItem{}, ErrQueueClosed
	case <-ctx.Done():
		return QueueItem{}, ctx.Err()
	}
}

// TryPop returns immediately: an item if one was ready, or ok=false if the
// queue was empty (not closed).
func (q *Queue) TryPop() (item QueueItem, ok bool) {
	select {
	case item, ok = <-q.ch:
		return item, ok
	default:
		return QueueItem{}, false
	}
}

// Unblock wakes exactly one blocked Pop/PopTimeout/PopContext caller by
// pushing the Unblock sentinel. Used during graceful shutdown to release
// consumer goroutines parked on an empty queue so they can observe a
// close flag and exit.
func (q *Queue) Unblock() {
	select {
	case q.ch <- QueueItem{Unblock: true}:
	case <-q.closed:
	}
}

// Close marks the queue closed: blocked and future Push/Pop calls return
// ErrQueueClosed once any already-buffered items have been drained.
func (q *Queue) Close() {
	select {
	case <-q.closed:
		// already closed
	default:
		close(q.closed)
	}
}
