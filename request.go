package tinyhttpd

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Request is one parsed request off a Connection (§3, §4.4). Exactly one
// of Respond, IntoWriter, or Upgrade may consume its response writer;
// dropIfUnconsumed enforces the "answer or 500" contract for whichever
// path the application didn't take.
//
// Go has no destructors, so "send 500 if nothing answered" can't run from
// a finalizer — ServerMT's dispatch in server_mt.go calls dropIfUnconsumed
// via defer around every handler invocation instead. Requests taken from a
// single-threaded Server's Recv get no such call; the caller must answer.
type Request struct {
	Method  string
	Path    string
	Proto   HTTPVersion
	Headers HeaderList

	RemoteAddr    string
	ContentLength *int64

	conn    *Connection
	body    *Body
	wTicket *Ticket

	mustContinue bool
	continueSent bool
	closeAfter   bool

	consumed bool

	headerIndex map[string]int
	indexBuilt  bool

	startedAt time.Time
}

// Header returns the first value for field (case-insensitive), building
// the lazy index on first use (§4.4: "idempotent header lookup ...
// amortized O(1)").
func (r *Request) Header(field string) (string, bool) {
	r.buildIndexOnce()
	if i, ok := r.headerIndex[strings.ToLower(field)]; ok {
		return r.Headers[i].Value, true
	}
	return "", false
}

// HeaderAll returns every value stored for field, in arrival order.
func (r *Request) HeaderAll(field string) []string {
	return r.Headers.GetAll(field)
}

func (r *Request) buildIndexOnce() {
	if r.indexBuilt {
		return
	}
	r.headerIndex = make(map[string]int, len(r.Headers))
	for i, h := range r.Headers {
		key := strings.ToLower(h.Field)
		if _, exists := r.headerIndex[key]; !exists {
			r.headerIndex[key] = i
		}
	}
	r.indexBuilt = true
}

// Body returns the request's body reader. Reading from it triggers the
// 100-continue response on the first call, if the client sent
// Expect: 100-continue (§4.4: "on first body-read ... write the continue
// response first, flush, then read").
func (r *Request) Body() io.ReadCloser {
	return &continueBody{req: r, body: r.body}
}

type continueBody struct {
	req  *Request
	body *Body
}

func (c *continueBody) Read(p []byte) (int, error) {
	if err := c.req.sendContinueIfNeeded(); err != nil {
		return 0, err
	}
	return c.body.Read(p)
}

func (c *continueBody) Close() error { return c.body.Close() }

func (r *Request) sendContinueIfNeeded() error {
	if !r.mustContinue || r.continueSent {
		return nil
	}
	r.continueSent = true
	r.wTicket.Acquire()
	r.conn.setWriteDeadline()
	if _, err := fmt.Fprintf(r.conn.bw, "HTTP/%d.%d %d %s\r\n\r\n",
		r.Proto.Major, r.Proto.Minor, StatusContinue, ReasonPhrase(StatusContinue)); err != nil {
		return err
	}
	return r.conn.bw.Flush()
}

// Respond serializes resp to the connection, stamping Connection per the
// request's keep-alive decision, and flushes. It is the normal, expected
// terminal path for a Request.
func (r *Request) Respond(resp *Response) error {
	if r.consumed {
		return ErrWriterConsumed
	}
	r.consumed = true
	r.wTicket.Acquire()
	r.conn.setWriteDeadline()
	defer r.finish()

	te, _ := r.Header("TE")
	opts := wireOpts{
		Version:    r.Proto,
		Method:     r.Method,
		TE:         te,
		DateValue:  r.conn.dateCache.Value(),
		ServerName: r.conn.serverName,
		Connection: r.connectionHeaderValue(),
	}
	err := resp.WriteTo(r.conn.bw, opts)
	r.conn.metrics.RequestServed(resp.Status(), time.Since(r.startedAt))
	if err != nil && isClientDisappearance(err) {
		return nil
	}
	return err
}

// IntoWriter surrenders the raw connection writer to the caller (e.g. for
// CGI pass-through, §4.4, §9): from this call on, the caller is
// responsible for the wire format, including calling Close to release
// the write ticket to the next pipelined response.
func (r *Request) IntoWriter() (io.WriteCloser, error) {
	if r.consumed {
		return nil, ErrWriterConsumed
	}
	r.consumed = true
	r.wTicket.Acquire()
	return &rawWriter{req: r}, nil
}

type rawWriter struct {
	req    *Request
	closed bool
}

func (w *rawWriter) Write(p []byte) (int, error) {
	w.req.conn.setWriteDeadline()
	return w.req.conn.bw.Write(p)
}

func (w *rawWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.req.conn.setWriteDeadline()
	err := w.req.conn.bw.Flush()
	w.req.finish()
	return err
}

// Upgrade writes a Connection: upgrade / Upgrade: protocol response and
// returns a full-duplex stream over both socket halves; HTTP framing no
// longer applies to anything written or read afterward (§4.4, GLOSSARY).
func (r *Request) Upgrade(protocol string, resp *Response) (io.ReadWriter, error) {
	if r.consumed {
		return nil, ErrWriterConsumed
	}
	r.consumed = true
	r.wTicket.Acquire()
	r.conn.setWriteDeadline()

	bw := r.conn.bw
	status := resp.Status()
	if status == 0 {
		status = StatusSwitchingProtocols
	}
	if _, err := fmt.Fprintf(bw, "HTTP/%d.%d %d %s\r\n", r.Proto.Major, r.Proto.Minor, status, ReasonPhrase(status)); err != nil {
		return nil, err
	}
	if err := writeHeaderLine(bw, "Date", r.conn.dateCache.Value()); err != nil {
		return nil, err
	}
	for _, h := range resp.Header() {
		if err := writeHeaderLine(bw, h.Field, h.Value); err != nil {
			return nil, err
		}
	}
	if err := writeHeaderLine(bw, "Connection", "upgrade"); err != nil {
		return nil, err
	}
	if err := writeHeaderLine(bw, "Upgrade", protocol); err != nil {
		return nil, err
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}

	r.conn.markUpgraded()
	return &duplexStream{r: r.body.r, w: r.conn.wHalf}, nil
}

type duplexStream struct {
	r io.Reader
	w io.Writer
}

func (d *duplexStream) Read(p []byte) (int, error)  { return d.r.Read(p) }
func (d *duplexStream) Write(p []byte) (int, error) { return d.w.Write(p) }

// dropIfUnconsumed sends a 500 if neither Respond, IntoWriter, nor
// Upgrade was ever called (§4.4: "on drop without any of the above, send
// a 500 response ... the client never hangs").
func (r *Request) dropIfUnconsumed() {
	if r.consumed {
		return
	}
	r.consumed = true
	r.wTicket.Acquire()
	r.conn.setWriteDeadline()
	defer r.finish()

	resp := NewEmptyResponse(StatusInternalServerError)
	opts := wireOpts{
		Version:    r.Proto,
		Method:     r.Method,
		DateValue:  r.conn.dateCache.Value(),
		ServerName: r.conn.serverName,
		Connection: r.connectionHeaderValue(),
	}
	if err := resp.WriteTo(r.conn.bw, opts); err != nil && !isClientDisappearance(err) {
		r.conn.logger.Warnf("tinyhttpd: writing dropped-request 500 response: %v", err)
	}
}

func (r *Request) connectionHeaderValue() string {
	if r.closeAfter {
		return "close"
	}
	return "keep-alive"
}

// finish releases the body (draining any unread bytes so the wire stays
// framed for the next pipelined request), releases the write ticket, and
// signals the connection-local completion channel the TLS path relies on
// (§4.4, §5).
func (r *Request) finish() {
	_ = r.body.Close()
	r.wTicket.Release()
	r.conn.signalDone()
}
