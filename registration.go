package tinyhttpd

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Registry bounds concurrent connections (§3 "Connection Registration",
// §4.7, §4.8 "Connection admission"), built on
// golang.org/x/sync/semaphore.Weighted in place of a hand-rolled
// counter-plus-sleep-loop: a weighted semaphore with weight 1 already
// gives "block the accept loop until a slot frees" for free, without
// busy-waiting.
type Registry struct {
	sem   *semaphore.Weighted
	count atomic.Int64
	max   int64
}

// NewRegistry returns a Registry admitting at most max concurrent
// connections.
func NewRegistry(max int) *Registry {
	if max <= 0 {
		max = DefaultMaxConnections
	}
	return &Registry{sem: semaphore.NewWeighted(int64(max)), max: int64(max)}
}

// Acquire blocks (respecting ctx) until a connection slot is available,
// then returns a Registration bound to that slot's lifetime. The caller
// must Release it exactly once — typically via defer on Connection
// teardown — even if the connection handling panics.
func (r *Registry) Acquire(ctx context.Context) (*Registration, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	r.count.Add(1)
	return &Registration{r: r}, nil
}

// Count returns the current number of registered (open) connections.
func (r *Registry) Count() int64 { return r.count.Load() }

// Max returns the configured connection limit.
func (r *Registry) Max() int64 { return r.max }

// Registration is a scoped increment of a Registry's connection count.
// Release decrements the count and frees the semaphore slot; it is
// idempotent so a deferred Release after an explicit one is harmless —
// this is how the type survives being released both on the normal path
// and from a recover() after a panic (§3: "destruction decrements even on
// panic").
type Registration struct {
	r        *Registry
	released atomic.Bool
}

// Release gives back this connection's slot. Safe to call multiple times
// and safe to call from a deferred recover().
func (reg *Registration) Release() {
	if reg == nil || !reg.released.CompareAndSwap(false, true) {
		return
	}
	reg.r.count.Add(-1)
	reg.r.sem.Release(1)
}
