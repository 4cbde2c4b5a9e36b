package tinyhttpd

import (
	"bufio"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/tinyhttpd/socket"
)

func newTestServerMT(t *testing.T, handler Handler) (*ServerMT, string) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Listen = socket.TCP("127.0.0.1:0")
	cfg.WorkerThreads = 2
	cfg.ExitGracefulTimeout = time.Second

	mt, err := NewServerMT(cfg, handler)
	if err != nil {
		t.Fatalf("NewServerMT: %v", err)
	}
	t.Cleanup(func() { mt.Shutdown() })
	return mt, mt.rawLns[0].Addr().String()
}

func TestServerMTEndToEndRequestResponse(t *testing.T) {
	_, addr := newTestServerMT(t, func(r *Request) {
		_ = r.Respond(NewStringResponse(StatusOK, "text/plain", "pong"))
	})

	resp, err := http.Get("http://" + addr + "/ping")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServerMTShutdownIsGracefulAndIdempotent(t *testing.T) {
	mt, addr := newTestServerMT(t, func(r *Request) {
		_ = r.Respond(NewStringResponse(StatusOK, "text/plain", "ok"))
	})

	resp, err := http.Get("http://" + addr + "/x")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	if err := mt.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := mt.Shutdown(); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}

	if _, err := net.DialTimeout("tcp", addr, 50*time.Millisecond); err == nil {
		t.Fatal("listener should be closed after Shutdown")
	}
}

func TestServerMTConnectionCounterReturnsToBaseline(t *testing.T) {
	mt, addr := newTestServerMT(t, func(r *Request) {
		_ = r.Respond(NewStringResponse(StatusOK, "text/plain", "ok"))
	})

	for i := 0; i < 3; i++ {
		resp, err := http.Get("http://" + addr + "/x")
		if err != nil {
			t.Fatalf("GET %d: %v", i, err)
		}
		resp.Body.Close()
	}
	// The default transport keeps finished connections open for reuse;
	// close them so the server sees the clients go away.
	http.DefaultClient.CloseIdleConnections()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if mt.NumConnections() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("NumConnections() = %d, want 0 eventually", mt.NumConnections())
}

// TestServerMTConnectionLimitBlocksExcessClientsAndShutdownStillBounds
// covers §8 scenario 6: with connection_limit=1, a second client's accept
// is held back until the first connection closes, and Shutdown still
// returns within ExitGracefulTimeout even while the limit is saturated
// (the accept loop is parked in Registry.Acquire with no slot free).
func TestServerMTConnectionLimitBlocksExcessClientsAndShutdownStillBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Listen = socket.TCP("127.0.0.1:0")
	cfg.WorkerThreads = 2
	cfg.ConnectionLimit = 1
	cfg.ExitGracefulTimeout = 100 * time.Millisecond

	mt, err := NewServerMT(cfg, func(r *Request) {
		_ = r.Respond(NewStringResponse(StatusOK, "text/plain", "ok"))
	})
	if err != nil {
		t.Fatalf("NewServerMT: %v", err)
	}
	addr := mt.rawLns[0].Addr().String()

	first, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial 1: %v", err)
	}
	defer first.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && mt.NumConnections() != 1 {
		time.Sleep(5 * time.Millisecond)
	}
	if mt.NumConnections() != 1 {
		t.Fatalf("NumConnections() = %d, want 1 (first connection admitted)", mt.NumConnections())
	}

	// The TCP handshake for a second client succeeds at the OS backlog
	// level, but our accept loop never reaches l.ln.Accept() for it: it's
	// parked in Registry.Acquire since the single slot is held by first.
	second, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial 2: %v", err)
	}
	defer second.Close()

	time.Sleep(50 * time.Millisecond)
	if mt.NumConnections() != 1 {
		t.Fatalf("NumConnections() = %d, want still 1 (second client not admitted)", mt.NumConnections())
	}

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- mt.Shutdown() }()

	select {
	case err := <-shutdownDone:
		if err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	case <-time.After(2*cfg.ExitGracefulTimeout + time.Second):
		t.Fatal("Shutdown did not return within its grace-timeout bound while the connection limit was saturated")
	}
}

func TestServerMTDroppedRequestYields500(t *testing.T) {
	_, addr := newTestServerMT(t, func(r *Request) {
		// Handler never calls Respond/IntoWriter/Upgrade; dispatch's
		// defer must still answer the client.
	})

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("GET /ignored HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	br := bufio.NewReader(conn)
	statusLine, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 500") {
		t.Fatalf("got %q, want 500", statusLine)
	}
}
