package tinyhttpd

import (
	"sync"
	"time"
)

// dateFormat is RFC-1123 in UT, the wire format for the Date header.
const dateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// dateCache holds the Date header value shared by the connections that are
// given it; each Server builds its own in its constructor, and the first
// value is computed there by newDateCache. Formatting a timestamp on every
// response is measurable under load, so one goroutine refreshes a shared
// string at 1 Hz and every response read just does an RLock.
type dateCache struct {
	mu    sync.RWMutex
	value string

	stop     chan struct{}
	stopOnce sync.Once
}

// newDateCache starts the refresh goroutine and returns once the first
// value is populated.
func newDateCache() *dateCache {
	dc := &dateCache{stop: make(chan struct{})}
	dc.refresh()
	go dc.run()
	return dc
}

func (dc *dateCache) run() {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			dc.refresh()
		case <-dc.stop:
			return
		}
	}
}

func (dc *dateCache) refresh() {
	v := time.Now().UTC().Format(dateFormat)
	dc.mu.Lock()
	dc.value = v
	dc.mu.Unlock()
}

// Value returns the current cached Date header value.
func (dc *dateCache) Value() string {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.value
}

// Close stops the refresh goroutine. Safe to call more than once.
func (dc *dateCache) Close() {
	dc.stopOnce.Do(func() { close(dc.stop) })
}
