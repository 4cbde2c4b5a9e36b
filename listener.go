package tinyhttpd

import (
	"context"
	"net"
	"sync"
	"time"
)

// Listener is the "Listener Thread" component from §2's data flow: it
// accepts, admits (via Registry), wraps each socket in a Connection, and
// submits that connection's parse loop to a Task Pool, which in turn
// feeds parsed Requests into a shared Queue.
//
// Closing the wrapped net.Listener is enough to unblock a pending
// Accept() with an error in Go — no "connect to self to unblock the
// accept() syscall" trick is needed.
type Listener struct {
	ln       net.Listener
	pool     *Pool
	queue    *Queue
	registry *Registry
	connCfg  ConnectionConfig
	logger   Logger

	closing    chan struct{}
	closeOnce  sync.Once
	acquireCtx context.Context
	cancel     context.CancelFunc
}

// NewListener wraps an already-bound net.Listener (plaintext or TLS) for
// use by Run.
func NewListener(ln net.Listener, pool *Pool, queue *Queue, registry *Registry, connCfg ConnectionConfig) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		ln:         ln,
		pool:       pool,
		queue:      queue,
		registry:   registry,
		connCfg:    connCfg,
		logger:     orNopLogger(connCfg.Logger),
		closing:    make(chan struct{}),
		acquireCtx: ctx,
		cancel:     cancel,
	}
}

// Run accepts connections until Close is called or the listener returns a
// permanent error. Each accepted connection's parse loop runs on the Task
// Pool; it blocks on admission (§4.8 connection limit) before every
// accept attempt. Close cancels the context this blocks on, so a
// connection-limit-saturated accept loop still observes shutdown
// immediately rather than waiting for a slot to free.
func (l *Listener) Run() {
	for {
		reg, err := l.registry.Acquire(l.acquireCtx)
		if err != nil {
			return
		}

		conn, err := l.ln.Accept()
		if err != nil {
			reg.Release()
			select {
			case <-l.closing:
				return
			default:
			}
			l.logger.Warnf("tinyhttpd: accept: %v", err)
			time.Sleep(5 * time.Millisecond)
			continue
		}

		cfg := l.connCfg
		cfg.Registration = reg
		c := NewConnection(conn, cfg)
		l.pool.Submit(func() { c.Serve(l.queue) })
	}
}

// Close stops the accept loop and closes the underlying listener. Also
// cancels the context a pending Registry.Acquire is blocked on, so an
// accept loop parked waiting for a connection slot (every slot in use)
// unblocks immediately instead of waiting for one to free.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		close(l.closing)
		l.cancel()
	})
	return l.ln.Close()
}
