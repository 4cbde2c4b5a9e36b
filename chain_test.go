package tinyhttpd

import (
	"sync"
	"testing"
	"time"
)

func TestChainOrdersAcquireByIssueOrder(t *testing.T) {
	c := NewChain()
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	tickets := make([]*Ticket, 5)
	for i := range tickets {
		tickets[i] = c.Next()
	}

	for i := len(tickets) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tickets[i].Acquire()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			tickets[i].Release()
		}(i)
	}
	wg.Wait()

	for i, got := range order {
		if got != i {
			t.Fatalf("acquire order = %v, want 0..4 in order", order)
		}
	}
}

func TestTicketReleaseIsIdempotent(t *testing.T) {
	c := NewChain()
	t1 := c.Next()
	t1.Release()
	t1.Release() // must not panic (closing a closed channel)

	t2 := c.Next()
	done := make(chan struct{})
	go func() {
		t2.Acquire()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second ticket never acquired after first was released twice")
	}
}

func TestTicketDroppedWithoutAcquireStillForwardsChain(t *testing.T) {
	c := NewChain()
	first := c.Next()
	second := c.Next()

	// first is released without ever calling Acquire.
	first.Release()

	done := make(chan struct{})
	go func() {
		second.Acquire()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second ticket blocked even though first was released unacquired")
	}
}
