package tinyhttpd

import (
	"time"

	"github.com/yourusername/tinyhttpd/socket"
	"github.com/yourusername/tinyhttpd/tlsconfig"
)

// Config covers every configuration option named in §6. A Config is built
// once from DefaultConfig by assigning its exported fields, then handed
// to NewServer/NewServerMT; it is never mutated after that.
type Config struct {
	Listen socket.ListenAddress

	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	TCPNoDelay            bool
	TCPKeepAlive          bool
	TCPKeepAliveTime      time.Duration
	TCPKeepAliveInterval  time.Duration
	Linger                int

	ConnectionLimit   int
	ContentBufferSize int
	HeaderLineLen     int
	HeaderMaxSize     int

	// WorkerThreads is the request-handler thread count for the
	// multi-threaded facade (§4.8: "N >= 2").
	WorkerThreads int
	// ExitGracefulTimeout bounds how long Shutdown waits for in-flight
	// workers to join before returning regardless (§4.8, §5).
	ExitGracefulTimeout time.Duration

	// TLS enables the TLS adapter when non-nil (§6: "ssl certificate +
	// private key").
	TLS *tlsconfig.Config

	ServerName     string
	ChunkThreshold int
	QueueCapacity  int

	Logger  Logger
	Metrics MetricsSink
}

// DefaultConfig returns a Config with the defaults named throughout §3
// and §4: 200 connections, a 1024-byte inline buffer, a 2048-byte header
// line, an 8192-byte header section, plaintext sockets tuned per
// socket.DefaultConfig, two handler threads, a 5s graceful-shutdown
// timeout.
func DefaultConfig() *Config {
	sc := socket.DefaultConfig()
	return &Config{
		Listen: socket.TCP("0.0.0.0:8080"),

		ReadTimeout:          0,
		WriteTimeout:         0,
		TCPNoDelay:           sc.NoDelay,
		TCPKeepAlive:         sc.KeepAlive,
		TCPKeepAliveTime:     sc.KeepAliveTime,
		TCPKeepAliveInterval: sc.KeepAliveInterval,
		Linger:               sc.Linger,

		ConnectionLimit:   DefaultMaxConnections,
		ContentBufferSize: DefaultContentBufferSize,
		HeaderLineLen:     DefaultHeaderLineLen,
		HeaderMaxSize:     DefaultHeaderMaxSize,

		WorkerThreads:       2,
		ExitGracefulTimeout: 5 * time.Second,

		ServerName:     "tinyhttpd",
		ChunkThreshold: DefaultChunkThreshold,
		QueueCapacity:  64,
	}
}

func (c *Config) limits() *Limits {
	return (&Limits{
		MaxConnections:    c.ConnectionLimit,
		ContentBufferSize: c.ContentBufferSize,
		HeaderLineLen:     c.HeaderLineLen,
		HeaderMaxSize:     c.HeaderMaxSize,
	}).orDefault()
}

func (c *Config) socketConfig() *socket.Config {
	return &socket.Config{
		ReadTimeout:       c.ReadTimeout,
		WriteTimeout:      c.WriteTimeout,
		NoDelay:           c.TCPNoDelay,
		KeepAlive:         c.TCPKeepAlive,
		KeepAliveTime:     c.TCPKeepAliveTime,
		KeepAliveInterval: c.TCPKeepAliveInterval,
		Linger:            c.Linger,
	}
}

func (c *Config) workerThreads() int {
	if c.WorkerThreads < 2 {
		return 2
	}
	return c.WorkerThreads
}

func (c *Config) queueCapacity() int {
	if c.QueueCapacity <= 0 {
		return 64
	}
	return c.QueueCapacity
}
