package tinyhttpd

import "sync"

// Chain hands out an infinite sequence of Tickets, each granting exclusive,
// in-order access to some shared resource (the connection's raw reader or
// writer) once every earlier Ticket has been released (§4.1).
//
// This is the "channel carrying ownership between sibling objects"
// formulation from the design notes (§9), built from one handoff channel
// per ticket rather than a single shared mutex + version counter: a
// Ticket's Release simply closes the channel its successor is waiting on,
// which is also why dropping a Ticket that never Acquired still unblocks
// the chain — Release doesn't care whether Acquire was ever called.
type Chain struct {
	mu   sync.Mutex
	tail chan struct{}
}

// NewChain returns a Chain whose first Ticket is immediately available.
func NewChain() *Chain {
	first := make(chan struct{})
	close(first)
	return &Chain{tail: first}
}

// Next allocates the next Ticket in sequence.
func (c *Chain) Next() *Ticket {
	c.mu.Lock()
	wait := c.tail
	mine := make(chan struct{})
	c.tail = mine
	c.mu.Unlock()
	return &Ticket{wait: wait, release: mine}
}

// Ticket is one slot in a Chain.
type Ticket struct {
	wait    chan struct{}
	release chan struct{}
	once    sync.Once
}

// Acquire blocks until every earlier Ticket in the chain has been
// released.
func (t *Ticket) Acquire() {
	<-t.wait
}

// AcquireOrDone blocks until either this Ticket becomes available or done
// is closed (e.g. the connection is shutting down). Reports whether the
// Ticket was acquired.
func (t *Ticket) AcquireOrDone(done <-chan struct{}) bool {
	select {
	case <-t.wait:
		return true
	case <-done:
		return false
	}
}

// Release hands the chain off to this Ticket's successor. Idempotent and
// safe to call whether or not Acquire was ever called — per §4.1's failure
// behavior, a Ticket dropped before acquiring the resource still forwards
// it downstream so later holders make progress.
func (t *Ticket) Release() {
	t.once.Do(func() { close(t.release) })
}
