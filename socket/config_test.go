package socket

import (
	"net"
	"testing"
	"time"
)

func TestApplyTunesTCPConn(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	connCh := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			connCh <- c
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	server := <-connCh
	defer server.Close()

	cfg := &Config{NoDelay: true, KeepAlive: true, KeepAliveTime: time.Second, KeepAliveInterval: time.Second, Linger: -1}
	if err := Apply(server, cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func TestApplyIsNoopOnNonTCPConn(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	if err := Apply(server, DefaultConfig()); err != nil {
		t.Fatalf("Apply on non-TCP conn should be a no-op, got: %v", err)
	}
}

func TestSetReadDeadlineZeroClearsDeadline(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cfg := &Config{ReadTimeout: 0}
	if err := SetReadDeadline(server, cfg); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
}

func TestSetWriteDeadlineAppliesTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cfg := &Config{WriteTimeout: 50 * time.Millisecond}
	if err := SetWriteDeadline(server, cfg); err != nil {
		t.Fatalf("SetWriteDeadline: %v", err)
	}
}
