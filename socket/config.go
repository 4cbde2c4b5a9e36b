// Package socket applies per-connection socket tuning: TCP_NODELAY,
// SO_KEEPALIVE (with idle/interval tuning), and SO_LINGER. This Go
// toolchain version exposes net.TCPConn.SetKeepAliveConfig and SetLinger
// directly, so no per-platform syscall split is necessary.
package socket

import (
	"net"
	"time"
)

// Config mirrors the Socket Config entity from the data model (§3): read
// and write timeouts, TCP no-delay, TCP keep-alive enable/time/interval,
// and SO_LINGER. It is constructed once and shared read-only via pointer
// across every connection accepted on a listener.
type Config struct {
	// ReadTimeout bounds a single blocking read; zero disables the bound.
	ReadTimeout time.Duration
	// WriteTimeout bounds a single blocking write; zero disables the bound.
	WriteTimeout time.Duration
	// NoDelay disables Nagle's algorithm when true.
	NoDelay bool
	// KeepAlive enables OS-level TCP keep-alive probing.
	KeepAlive bool
	// KeepAliveTime is how long the connection must be idle before the
	// first probe is sent.
	KeepAliveTime time.Duration
	// KeepAliveInterval is the spacing between subsequent probes.
	KeepAliveInterval time.Duration
	// Linger sets SO_LINGER in seconds: negative leaves the OS default,
	// zero means an immediate RST-on-close, positive blocks Close for up
	// to that many seconds flushing pending data.
	Linger int
}

// DefaultConfig returns reasonable defaults: no explicit timeouts, no-delay
// on, keep-alive on with a 60s idle time and 10s probe interval, OS-default
// linger.
func DefaultConfig() *Config {
	return &Config{
		NoDelay:           true,
		KeepAlive:         true,
		KeepAliveTime:     60 * time.Second,
		KeepAliveInterval: 10 * time.Second,
		Linger:            -1,
	}
}

// Apply tunes conn per cfg. Non-TCP connections (e.g. Unix domain sockets,
// or an already-wrapped TLS conn whose underlying socket isn't reachable)
// are left untouched and Apply returns nil.
func Apply(conn net.Conn, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tcp.SetNoDelay(cfg.NoDelay); err != nil {
		return err
	}

	if cfg.KeepAlive {
		_ = tcp.SetKeepAliveConfig(net.KeepAliveConfig{
			Enable:   true,
			Idle:     cfg.KeepAliveTime,
			Interval: cfg.KeepAliveInterval,
		})
	} else {
		_ = tcp.SetKeepAlive(false)
	}

	if cfg.Linger >= 0 {
		_ = tcp.SetLinger(cfg.Linger)
	}

	return nil
}

// SetReadDeadline and SetWriteDeadline apply the configured read/write
// timeouts to conn ahead of
// the next I/O operation. A zero duration clears the corresponding
// deadline (no bound), matching net.Conn.SetDeadline(time.Time{}) semantics.
func SetReadDeadline(conn net.Conn, cfg *Config) error {
	if cfg == nil || cfg.ReadTimeout == 0 {
		return conn.SetReadDeadline(time.Time{})
	}
	return conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
}

func SetWriteDeadline(conn net.Conn, cfg *Config) error {
	if cfg == nil || cfg.WriteTimeout == 0 {
		return conn.SetWriteDeadline(time.Time{})
	}
	return conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
}
