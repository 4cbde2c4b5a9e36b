package tinyhttpd

import (
	"testing"
	"time"
)

func TestQueuePushPopFIFO(t *testing.T) {
	q := NewQueue(4)
	for i := 0; i < 3; i++ {
		req := &Request{Path: string(rune('a' + i))}
		if err := q.Push(QueueItem{Req: req}); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		item, err := q.Pop()
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		want := string(rune('a' + i))
		if item.Req.Path != want {
			t.Fatalf("pop order: got %q, want %q", item.Req.Path, want)
		}
	}
}

func TestQueueTryPopEmpty(t *testing.T) {
	q := NewQueue(1)
	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop on empty queue should report ok=false")
	}
}

func TestQueuePopTimeout(t *testing.T) {
	q := NewQueue(1)
	start := time.Now()
	_, err := q.PopTimeout(20 * time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error on empty queue")
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatal("PopTimeout took far longer than its deadline")
	}
}

func TestQueueCloseDrainsBufferedFirst(t *testing.T) {
	q := NewQueue(2)
	req := &Request{Path: "/buffered"}
	if err := q.Push(QueueItem{Req: req}); err != nil {
		t.Fatalf("push: %v", err)
	}
	q.Close()

	item, err := q.Pop()
	if err != nil {
		t.Fatalf("expected buffered item before ErrQueueClosed, got err=%v", err)
	}
	if item.Req != req {
		t.Fatalf("got wrong buffered item")
	}

	if _, err := q.Pop(); err != ErrQueueClosed {
		t.Fatalf("expected ErrQueueClosed once drained, got %v", err)
	}
}

func TestQueueUnblockWakesOneConsumer(t *testing.T) {
	q := NewQueue(2)
	done := make(chan error, 1)
	go func() {
		_, err := q.Pop()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Unblock()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error from woken consumer: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("consumer was never woken by Unblock")
	}
}

func TestQueuePushAfterCloseFails(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	if err := q.Push(QueueItem{}); err != ErrQueueClosed {
		t.Fatalf("got %v, want ErrQueueClosed", err)
	}
}
