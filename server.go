package tinyhttpd

import (
	"net"
	"sync"
	"time"

	"github.com/yourusername/tinyhttpd/socket"
)

// Server is the single-threaded facade (§4.8): the accept loop enqueues
// parsed requests into a shared Queue, and the application drives
// consumption itself via Recv/TryRecv/RecvTimeout/Requests. Responses are
// written from whichever goroutine calls Request.Respond — the facade
// imposes no threading model on the caller.
type Server struct {
	cfg       *Config
	listeners []*Listener
	rawLns    []net.Listener

	pool      *Pool
	queue     *Queue
	registry  *Registry
	dateCache *dateCache
	metrics   MetricsSink
	logger    Logger

	acceptWG  sync.WaitGroup
	closeOnce sync.Once
}

// NewServer binds cfg.Listen (wrapping with TLS if cfg.TLS is set) and
// starts one accept loop per resulting listener. Requests begin arriving
// on the returned Server's queue immediately.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	lns, err := socket.Bind(cfg.Listen)
	if err != nil {
		return nil, err
	}
	if cfg.TLS != nil {
		wrapped := make([]net.Listener, 0, len(lns))
		for _, ln := range lns {
			w, werr := cfg.TLS.Wrap(ln)
			if werr != nil {
				for _, opened := range lns {
					_ = opened.Close()
				}
				return nil, werr
			}
			wrapped = append(wrapped, w)
		}
		lns = wrapped
	}

	s := &Server{
		cfg:       cfg,
		rawLns:    lns,
		pool:      NewPool(),
		queue:     NewQueue(cfg.queueCapacity()),
		registry:  NewRegistry(cfg.limits().MaxConnections),
		dateCache: newDateCache(),
		metrics:   orNopMetrics(cfg.Metrics),
		logger:    orNopLogger(cfg.Logger),
	}

	connCfg := ConnectionConfig{
		Limits:         cfg.limits(),
		Socket:         cfg.socketConfig(),
		Logger:         s.logger,
		Metrics:        s.metrics,
		DateCache:      s.dateCache,
		ServerName:     cfg.ServerName,
		ChunkThreshold: cfg.ChunkThreshold,
		Serialize:      cfg.TLS != nil,
	}

	for _, ln := range lns {
		l := NewListener(ln, s.pool, s.queue, s.registry, connCfg)
		s.listeners = append(s.listeners, l)
	}
	for _, l := range s.listeners {
		s.acceptWG.Add(1)
		go func(l *Listener) {
			defer s.acceptWG.Done()
			l.Run()
		}(l)
	}

	return s, nil
}

// NumConnections returns the current concurrent-connection count, for
// tests and diagnostics (§8: "the concurrent-connection counter returns
// to its pre-accept value").
func (s *Server) NumConnections() int64 { return s.registry.Count() }

// Recv blocks for the next parsed request.
func (s *Server) Recv() (*Request, error) {
	item, err := s.queue.Pop()
	if err != nil {
		return nil, err
	}
	return itemToResult(item)
}

// TryRecv returns immediately: ErrWouldBlock if nothing is queued yet.
func (s *Server) TryRecv() (*Request, error) {
	item, ok := s.queue.TryPop()
	if !ok {
		return nil, ErrWouldBlock
	}
	return itemToResult(item)
}

// RecvTimeout blocks for at most d.
func (s *Server) RecvTimeout(d time.Duration) (*Request, error) {
	item, err := s.queue.PopTimeout(d)
	if err != nil {
		return nil, err
	}
	return itemToResult(item)
}

func itemToResult(item QueueItem) (*Request, error) {
	if item.Unblock {
		return nil, ErrServerClosed
	}
	if item.Err != nil {
		return nil, item.Err
	}
	return item.Req, nil
}

// Requests returns a channel of parsed requests, closed once the server
// shuts down — the iterator form named in §4.8. Errors surfaced by
// Recv (parse failures on individual connections) are logged and
// skipped; they do not end the iteration.
func (s *Server) Requests() <-chan *Request {
	out := make(chan *Request)
	go func() {
		defer close(out)
		for {
			req, err := s.Recv()
			if err != nil {
				if err == ErrServerClosed || err == ErrQueueClosed {
					return
				}
				s.logger.Debugf("tinyhttpd: request iterator: %v", err)
				continue
			}
			out <- req
		}
	}()
	return out
}

// Shutdown stops accepting new connections, waits up to
// cfg.ExitGracefulTimeout for in-flight connections' parse loops to
// finish, and closes the queue. Safe to call more than once. Per §4.8:
// "if joining exceeds a configured grace timeout, return regardless" —
// Listener.Close cancels the context a connection-limit-saturated accept
// loop is blocked on, so this bound is reachable even when every
// connection slot is in use.
func (s *Server) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		for _, l := range s.listeners {
			if e := l.Close(); e != nil {
				err = e
			}
		}
		if !waitGroupTimeout(&s.acceptWG, s.cfg.ExitGracefulTimeout) {
			s.logger.Warnf("tinyhttpd: accept loops did not join within %s, continuing shutdown", s.cfg.ExitGracefulTimeout)
		}
		if !s.pool.CloseTimeout(s.cfg.ExitGracefulTimeout) {
			s.logger.Warnf("tinyhttpd: worker pool did not drain within %s, continuing shutdown", s.cfg.ExitGracefulTimeout)
		}
		s.queue.Close()
		s.dateCache.Close()
	})
	return err
}

// waitGroupTimeout waits for wg, bounded by timeout (<= 0 means wait
// indefinitely). Reports whether wg finished before the deadline.
func waitGroupTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	if timeout <= 0 {
		wg.Wait()
		return true
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
