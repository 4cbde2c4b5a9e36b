package tinyhttpd

import (
	"bytes"
	"io"
)

// BodyKind tags which of the five framing variants a Request's body reader
// is (§9: "polymorphic over five variants ... use tagged variants; do not
// require dynamic dispatch if a closed set suffices").
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyInline
	BodyLimited
	BodyChunked
	BodyUpgrade
)

// Body is a Request's body reader. Exactly one BodyKind applies; Read and
// Close behave per that kind. Inline and Empty bodies never hold a read
// Ticket (they were already fully materialized by the time the Request was
// constructed, per §4.3 rule 2), so the connection's reader chain is never
// blocked waiting on them.
type Body struct {
	kind   BodyKind
	r      io.Reader
	ticket *Ticket // non-nil for BodyLimited and BodyChunked
	done   bool

	pool *bufferPool // non-nil for a pooled BodyInline buffer
	buf  []byte
}

func newEmptyBody() *Body {
	return &Body{kind: BodyEmpty, r: bytes.NewReader(nil)}
}

// newInlineBody wraps an already-read buffer. If it came from pool, the
// buffer is returned to it once the body is fully released, rather than
// left for the garbage collector.
func newInlineBody(buf []byte, pool *bufferPool) *Body {
	return &Body{kind: BodyInline, r: bytes.NewReader(buf), pool: pool, buf: buf}
}

func newLimitedBody(r io.Reader, n int64, ticket *Ticket) *Body {
	return &Body{kind: BodyLimited, r: io.LimitReader(r, n), ticket: ticket}
}

func newChunkedBody(r io.Reader, ticket *Ticket) *Body {
	return &Body{kind: BodyChunked, r: newChunkedReader(r), ticket: ticket}
}

func newUpgradeBody(r io.Reader) *Body {
	return &Body{kind: BodyUpgrade, r: r}
}

func (b *Body) Kind() BodyKind { return b.kind }

// Read implements io.Reader. On reaching EOF for a ticketed body, the
// Ticket is released so the connection's parser can proceed to the next
// request's header section (§4.1, §4.3).
func (b *Body) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err == io.EOF {
		b.release()
	}
	return n, err
}

// Close drains any remaining body bytes (so the wire stays framed
// correctly for the next pipelined request) and releases the read Ticket,
// if any. Called automatically when a Request is dropped or responded to
// without the handler having read the body to completion.
func (b *Body) Close() error {
	if b.done {
		return nil
	}
	if b.kind == BodyLimited || b.kind == BodyChunked {
		_, _ = io.Copy(io.Discard, b.r)
	}
	b.release()
	return nil
}

func (b *Body) release() {
	if b.done {
		return
	}
	b.done = true
	if b.ticket != nil {
		b.ticket.Release()
	}
	if b.pool != nil {
		b.pool.Put(b.buf)
		b.pool = nil
	}
}
