package tinyhttpd

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolStartsWithMinThreads(t *testing.T) {
	p := NewPool()
	defer p.Close()
	time.Sleep(20 * time.Millisecond) // let freshly spawned workers reach their idle-wait point
	total, idle := p.Stats()
	if total != MinThreads {
		t.Fatalf("total = %d, want %d", total, MinThreads)
	}
	if idle != MinThreads {
		t.Fatalf("idle = %d, want %d (no work submitted yet)", idle, MinThreads)
	}
}

func TestPoolRunsSubmittedWork(t *testing.T) {
	p := NewPool()
	defer p.Close()

	var n atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		p.Submit(func() {
			n.Add(1)
			wg.Done()
		})
	}
	wg.Wait()
	if n.Load() != 50 {
		t.Fatalf("ran %d tasks, want 50", n.Load())
	}
}

func TestPoolGrowsBeyondMinThreadsUnderLoad(t *testing.T) {
	p := NewPool()
	defer p.Close()

	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < MinThreads+5; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			<-release
		})
	}

	time.Sleep(50 * time.Millisecond)
	total, _ := p.Stats()
	if total <= MinThreads {
		t.Fatalf("pool did not grow past MinThreads under backlog: total=%d", total)
	}
	close(release)
	wg.Wait()
}

func TestPoolCloseWaitsForInFlightWork(t *testing.T) {
	p := NewPool()
	var ran atomic.Bool
	p.Submit(func() {
		time.Sleep(20 * time.Millisecond)
		ran.Store(true)
	})
	p.Close()
	if !ran.Load() {
		t.Fatal("Close returned before in-flight task finished")
	}
}
