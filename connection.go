package tinyhttpd

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/tinyhttpd/socket"
)

// ConnectionConfig bundles everything a Connection needs that is shared,
// read-only, across every connection a Server accepts (§3: "Shared,
// read-only configuration is passed by reference-counted handle" — a
// plain pointer plays that role in Go, since nothing here is ever
// mutated after Server construction).
type ConnectionConfig struct {
	Limits         *Limits
	Socket         *socket.Config
	Registration   *Registration
	Logger         Logger
	Metrics        MetricsSink
	DateCache      *dateCache
	ServerName     string
	ChunkThreshold int
	// Serialize is true for TLS connections: the connection loop won't
	// parse the next request until the previous one has fully answered
	// (§4.4, §5, §9 — "the TLS engine ... cannot safely interleave reader
	// and writer across threads").
	Serialize bool
}

// Connection is the per-connection header parser and request iterator
// (§4.3). It owns one Refined Stream pair, a reader-chain and
// writer-chain builder, and the "will close after current request" flag.
type Connection struct {
	stream *RefinedStream
	rHalf  *ReadHalf
	wHalf  *WriteHalf
	br     *bufio.Reader
	bw     *bufio.Writer

	readChain  *Chain
	writeChain *Chain

	limits  *Limits
	sockCfg *socket.Config
	bufPool *bufferPool

	remoteAddr   string
	registration *Registration

	logger         Logger
	metrics        MetricsSink
	dateCache      *dateCache
	serverName     string
	chunkThreshold int

	serialize   bool
	servedOnce  bool
	notify      chan struct{}

	closeAfter bool
	upgraded   bool
}

// NewConnection wraps an accepted net.Conn (plaintext or TLS) for use by
// a task-pool worker's Connection.Serve loop.
func NewConnection(conn net.Conn, cfg ConnectionConfig) *Connection {
	if cfg.Socket != nil {
		_ = socket.Apply(conn, cfg.Socket)
	}
	stream := WrapStream(conn)
	c := &Connection{
		stream:         stream,
		rHalf:          stream.ReadHalf(),
		wHalf:          stream.WriteHalf(),
		readChain:      NewChain(),
		writeChain:     NewChain(),
		limits:         cfg.Limits.orDefault(),
		sockCfg:        cfg.Socket,
		remoteAddr:     conn.RemoteAddr().String(),
		registration:   cfg.Registration,
		logger:         orNopLogger(cfg.Logger),
		metrics:        orNopMetrics(cfg.Metrics),
		dateCache:      cfg.DateCache,
		serverName:     cfg.ServerName,
		chunkThreshold: cfg.ChunkThreshold,
		serialize:      cfg.Serialize,
		notify:         make(chan struct{}, 1),
	}
	c.br = bufio.NewReader(c.rHalf)
	c.bw = bufio.NewWriter(c.wHalf)
	c.bufPool = newBufferPool(c.limits.ContentBufferSize)
	c.metrics.ConnectionOpened()
	return c
}

// RemoteAddr returns the peer address string captured at accept time.
func (c *Connection) RemoteAddr() string { return c.remoteAddr }

// setWriteDeadline bounds the next blocking write/flush on this
// connection per cfg.WriteTimeout (§5, §6, §7: "write timeout is
// surfaced as an I/O error; the connection closes"). Called immediately
// before every write to the connection's bufio.Writer, mirroring Next's
// SetReadDeadline call before every read.
func (c *Connection) setWriteDeadline() {
	if c.sockCfg != nil {
		_ = socket.SetWriteDeadline(c.wHalf.Conn(), c.sockCfg)
	}
}

// Next parses and returns the next pipelined request, or io.EOF once the
// peer has gone away or a prior request decided the connection should
// close, or a *ReadError for anything in between (§4.3).
func (c *Connection) Next() (*Request, error) {
	if c.upgraded || c.closeAfter {
		return nil, io.EOF
	}
	if c.serialize && c.servedOnce {
		<-c.notify
	}

	readTicket := c.readChain.Next()
	wTicket := c.writeChain.Next()

	if c.sockCfg != nil {
		_ = socket.SetReadDeadline(c.rHalf.Conn(), c.sockCfg)
	}
	readTicket.Acquire()

	rl, headBytes, rerr, ioerr := parseRequestLine(c.br, c.limits, c.logger)
	if ioerr == io.EOF {
		readTicket.Release()
		wTicket.Release()
		return nil, io.EOF
	}
	if ioerr != nil {
		readTicket.Release()
		rerr = classifyIOErr(ioerr, HTTPVersion{})
		c.metrics.ParseError(rerr.Kind)
		c.respondError(wTicket, rerr, true)
		return nil, rerr
	}
	if rerr != nil {
		readTicket.Release()
		c.metrics.ParseError(rerr.Kind)
		c.respondError(wTicket, rerr, true)
		return nil, rerr
	}

	headers, herr := parseHeaderSection(c.br, c.limits, rl.Version, headBytes, c.logger)
	if herr != nil {
		readTicket.Release()
		c.metrics.ParseError(herr.Kind)
		c.respondError(wTicket, herr, true)
		return nil, herr
	}

	body, mustContinue, berr := c.buildBody(rl.Version, headers, readTicket)
	if berr != nil {
		c.metrics.ParseError(berr.Kind)
		closeAfter := true
		if berr.Kind == ErrExpectationFailed && !bodyIndicated(headers) {
			closeAfter = false
		}
		c.respondError(wTicket, berr, closeAfter)
		return nil, berr
	}

	c.closeAfter = decideCloseAfter(rl.Version, headers, c.sockCfg != nil && c.sockCfg.KeepAlive)
	c.servedOnce = true

	var contentLength *int64
	if v, ok := headers.Get("Content-Length"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			contentLength = &n
		}
	}

	req := &Request{
		Method:        rl.Method,
		Path:          rl.Target,
		Proto:         rl.Version,
		Headers:       headers,
		RemoteAddr:    c.remoteAddr,
		ContentLength: contentLength,
		conn:          c,
		body:          body,
		wTicket:       wTicket,
		mustContinue:  mustContinue,
		closeAfter:    c.closeAfter,
		startedAt:     time.Now(),
	}
	return req, nil
}

// bodyIndicated reports whether the header section named any body
// framing at all (§7: ExpectationFailed "may continue only if no body
// was indicated").
func bodyIndicated(headers HeaderList) bool {
	return headers.Has("Content-Length") || headers.Has("Transfer-Encoding")
}

// buildBody selects the body framing variant per §4.3's precedence order.
func (c *Connection) buildBody(version HTTPVersion, headers HeaderList, readTicket *Ticket) (*Body, bool, *ReadError) {
	connTokens := connectionTokens(firstOrEmpty(headers, "Connection"))
	if hasToken(connTokens, "upgrade") {
		return newUpgradeBody(c.br), false, nil
	}

	expectVal, hasExpect := headers.Get("Expect")
	mustContinue := false
	if hasExpect {
		if !strings.EqualFold(expectVal, "100-continue") {
			return nil, false, newExpectationFailedErr(version)
		}
		mustContinue = true
	}

	clVal, hasCL := headers.Get("Content-Length")
	_, hasTE := headers.Get("Transfer-Encoding")

	if hasCL && !hasTE {
		n, err := strconv.ParseInt(clVal, 10, 64)
		if err != nil || n < 0 {
			return nil, false, newProtocolErr(version, StatusBadRequest, errors.New("invalid Content-Length"))
		}
		if n == 0 {
			readTicket.Release()
			return newEmptyBody(), false, nil
		}
		if n <= int64(c.limits.ContentBufferSize) && !mustContinue {
			buf := c.bufPool.Get(n)
			if _, err := io.ReadFull(c.br, buf); err != nil {
				c.bufPool.Put(buf)
				readTicket.Release()
				return nil, false, classifyIOErr(err, version)
			}
			readTicket.Release()
			return newInlineBody(buf, c.bufPool), false, nil
		}
		return newLimitedBody(c.br, n, readTicket), mustContinue, nil
	}

	if hasTE {
		return newChunkedBody(c.br, readTicket), mustContinue, nil
	}

	readTicket.Release()
	return newEmptyBody(), false, nil
}

func firstOrEmpty(headers HeaderList, field string) string {
	v, _ := headers.Get(field)
	return v
}

// decideCloseAfter implements the connection-state update rule in §4.3.
func decideCloseAfter(version HTTPVersion, headers HeaderList, keepAliveEnabled bool) bool {
	tokens := connectionTokens(firstOrEmpty(headers, "Connection"))
	if hasToken(tokens, "close") {
		return true
	}
	hasKeepAlive := hasToken(tokens, "keep-alive")
	if hasToken(tokens, "upgrade") && !hasKeepAlive {
		return true
	}
	if !version.AtLeast(HTTP11) {
		return !(hasKeepAlive && keepAliveEnabled)
	}
	return false
}

// classifyIOErr maps a raw I/O error into the ReadIoTimeout/ReadIoOther
// taxonomy (§7).
func classifyIOErr(err error, version HTTPVersion) *ReadError {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return newTimeoutErr(version, err)
	}
	return newReadIOErr(version, err)
}

// respondError writes rerr's status (if any) and records the
// connection's close decision.
func (c *Connection) respondError(wTicket *Ticket, rerr *ReadError, closeAfter bool) {
	c.closeAfter = closeAfter
	if !rerr.respondable() {
		wTicket.Release()
		return
	}
	wTicket.Acquire()
	c.setWriteDeadline()
	connValue := "keep-alive"
	if closeAfter {
		connValue = "close"
	}
	resp := NewEmptyResponse(rerr.Status)
	opts := wireOpts{
		Version:    rerr.Version,
		DateValue:  c.dateCache.Value(),
		ServerName: c.serverName,
		Connection: connValue,
	}
	if err := resp.WriteTo(c.bw, opts); err != nil && !isClientDisappearance(err) {
		c.logger.Warnf("tinyhttpd: writing %d response: %v", rerr.Status, err)
	}
	wTicket.Release()
}

// markUpgraded stops the iterator from parsing any further requests
// (HTTP framing no longer applies after a protocol switch).
func (c *Connection) markUpgraded() { c.upgraded = true }

// signalDone wakes a connection loop parked waiting for the previous
// request to finish (TLS serialization, §5/§9). Non-blocking: if nobody
// is waiting yet, the signal is simply buffered for the next wait.
func (c *Connection) signalDone() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Serve drives the request iterator, pushing each parsed Request (or
// terminal error) onto queue until the connection closes, then tears the
// connection down. Intended to run on one Task Pool worker per
// connection (§2 data flow: "Client Connection (parses) → Message
// Queue").
func (c *Connection) Serve(queue *Queue) {
	defer c.closeWhenDrained()
	for {
		req, err := c.Next()
		if err != nil {
			if err != io.EOF {
				_ = queue.Push(QueueItem{Err: err})
			}
			return
		}
		if err := queue.Push(QueueItem{Req: req}); err != nil {
			return
		}
	}
}

// closeWhenDrained waits for every response already handed to a Request
// (including the last one this parse loop produced) to finish writing
// before tearing the stream down — otherwise Close could race a still
// in-flight Respond/IntoWriter/Upgrade call on another goroutine and sever
// its write mid-response. Taking one more Ticket off the write chain and
// waiting for it to become available is exactly "wait for every
// previously issued Ticket to be released" (§4.1).
func (c *Connection) closeWhenDrained() {
	c.writeChain.Next().Acquire()
	c.Close()
}

// Close releases the connection's registration slot and shuts down both
// stream halves.
func (c *Connection) Close() error {
	c.metrics.ConnectionClosed()
	c.registration.Release()
	_ = c.rHalf.Close()
	return c.wHalf.Close()
}
