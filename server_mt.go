package tinyhttpd

import (
	"sync"
	"time"
)

// Handler answers one Request. It must eventually call exactly one of
// Respond/IntoWriter/Upgrade; if it doesn't, ServerMT's dispatch loop
// sends a 500 on its behalf (§4.4).
type Handler func(*Request)

// ServerMT is the multi-threaded facade (§4.8): identical accept/parse
// machinery to Server, plus N >= 2 request-handler goroutines that each
// loop pulling from the same Queue and invoking a user Handler.
type ServerMT struct {
	*Server

	handler    Handler
	numWorkers int

	workers      sync.WaitGroup
	shutdownOnce sync.Once
	forceOnce    sync.Once
}

// NewServerMT builds a Server per cfg and starts cfg.WorkerThreads (at
// least 2) handler goroutines running handler.
func NewServerMT(cfg *Config, handler Handler) (*ServerMT, error) {
	s, err := NewServer(cfg)
	if err != nil {
		return nil, err
	}
	mt := &ServerMT{
		Server:     s,
		handler:    handler,
		numWorkers: cfg.workerThreads(),
	}
	for i := 0; i < mt.numWorkers; i++ {
		mt.workers.Add(1)
		go mt.workerLoop()
	}
	return mt, nil
}

func (mt *ServerMT) workerLoop() {
	defer mt.workers.Done()
	for {
		req, err := mt.Recv()
		if err != nil {
			if err == ErrServerClosed || err == ErrQueueClosed {
				return
			}
			mt.logger.Debugf("tinyhttpd: worker: %v", err)
			continue
		}
		mt.dispatch(req)
	}
}

func (mt *ServerMT) dispatch(req *Request) {
	defer req.dropIfUnconsumed()
	mt.handler(req)
}

// Shutdown implements the graceful-shutdown sequence from §4.8 and §5:
// stop accepting, let in-flight connection parsers finish, wake every
// handler goroutine once via the queue's Unblock sentinel, then wait up
// to cfg.ExitGracefulTimeout for them to drain before returning anyway.
func (mt *ServerMT) Shutdown() error {
	var err error
	mt.shutdownOnce.Do(func() {
		for _, l := range mt.listeners {
			if e := l.Close(); e != nil {
				err = e
			}
		}
		if !waitGroupTimeout(&mt.acceptWG, mt.cfg.ExitGracefulTimeout) {
			mt.logger.Warnf("tinyhttpd: accept loops did not join within %s, continuing shutdown", mt.cfg.ExitGracefulTimeout)
		}
		if !mt.pool.CloseTimeout(mt.cfg.ExitGracefulTimeout) {
			mt.logger.Warnf("tinyhttpd: worker pool did not drain within %s, continuing shutdown", mt.cfg.ExitGracefulTimeout)
		}

		for i := 0; i < mt.numWorkers; i++ {
			mt.queue.Unblock()
		}

		done := make(chan struct{})
		go func() {
			mt.workers.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(mt.cfg.ExitGracefulTimeout):
			mt.logger.Warnf("tinyhttpd: graceful shutdown exceeded %s, returning", mt.cfg.ExitGracefulTimeout)
		}

		mt.queue.Close()
		mt.dateCache.Close()
	})
	return err
}

// ForceStop is the "second explicit stop signal" from §4.8: it closes the
// queue immediately, which unblocks every worker's Recv with
// ErrQueueClosed regardless of how long Shutdown's grace period has left
// to run.
func (mt *ServerMT) ForceStop() {
	mt.forceOnce.Do(func() {
		mt.queue.Close()
	})
}
