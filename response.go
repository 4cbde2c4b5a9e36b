package tinyhttpd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultChunkThreshold is the response length, in bytes, at or above
// which an identity body with unknown-at-write-time framing switches to
// chunked encoding (§4.5).
const DefaultChunkThreshold = 32768

// Response is a status plus headers plus an optional body reader, not yet
// committed to a transfer encoding — that choice is made in WriteTo, once
// the request's version, method and TE header are known (§3, §4.5).
type Response struct {
	status int
	headers HeaderList
	filter  map[string]struct{}

	body   io.Reader
	length int64 // -1 means unknown

	chunkThreshold int
}

// NewResponse builds a Response serving body, whose length is exactly
// length bytes. Pass length -1 if it isn't known up front.
func NewResponse(status int, body io.Reader, length int64) *Response {
	return &Response{
		status:         status,
		body:           body,
		length:         length,
		chunkThreshold: DefaultChunkThreshold,
	}
}

// NewEmptyResponse builds a bodyless Response, e.g. for redirects or
// status-only answers.
func NewEmptyResponse(status int) *Response {
	return NewResponse(status, bytes.NewReader(nil), 0)
}

// NewStringResponse builds a Response whose body is the exact bytes of s.
func NewStringResponse(status int, contentType, s string) *Response {
	r := NewResponse(status, strings.NewReader(s), int64(len(s)))
	if contentType != "" {
		_ = r.SetHeader("Content-Type", contentType)
	}
	return r
}

// Status returns the response's status code.
func (r *Response) Status() int { return r.status }

// SetStatus overrides the status code after construction.
func (r *Response) SetStatus(status int) { r.status = status }

// SetHeader sets a header field (§4.4/§4.5). Content-Length folds into
// the length hint rather than being stored as a literal header field;
// Content-Type is single-valued and replaces any prior value; the framing
// fields in the forbidden set are rejected outright — the core computes
// Connection/Transfer-Encoding itself at write time.
func (r *Response) SetHeader(field, value string) error {
	if IsForbiddenField(field) {
		return ErrForbiddenHeader
	}
	if strings.EqualFold(field, "content-length") {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("tinyhttpd: invalid Content-Length value %q", value)
		}
		r.length = n
		return nil
	}
	if strings.EqualFold(field, "content-type") {
		r.removeHeader("content-type")
	}
	r.headers.Append(field, value)
	return nil
}

func (r *Response) removeHeader(lowerField string) {
	out := r.headers[:0]
	for _, h := range r.headers {
		if strings.EqualFold(h.Field, lowerField) {
			continue
		}
		out = append(out, h)
	}
	r.headers = out
}

// Header returns the response's accumulated headers (not including
// Connection/Transfer-Encoding/Date/Server, which are computed at write
// time).
func (r *Response) Header() HeaderList { return r.headers }

// Filter suppresses field from being written to the wire even though it
// is present in Header() — used by the byte-range subsystem to drop
// Content-Length and Content-Type on an unsatisfiable range (§4.5).
func (r *Response) Filter(field string) {
	if r.filter == nil {
		r.filter = make(map[string]struct{})
	}
	r.filter[strings.ToLower(field)] = struct{}{}
}

func (r *Response) filtered(field string) bool {
	if r.filter == nil {
		return false
	}
	_, ok := r.filter[strings.ToLower(field)]
	return ok
}

// Length reports the response's known length and whether it is known at
// all.
func (r *Response) Length() (int64, bool) { return r.length, r.length >= 0 }

// SetChunkThreshold overrides DefaultChunkThreshold for this response.
func (r *Response) SetChunkThreshold(n int) { r.chunkThreshold = n }

// wireOpts carries everything about the in-flight request that
// transfer-encoding selection and header stamping need, without coupling
// Response to the Request/Connection types.
type wireOpts struct {
	Version    HTTPVersion
	Method     string
	TE         string
	DateValue  string
	ServerName string
	// Connection, if non-empty, is stamped as the Connection header value
	// (§4.4: "if the original request had Connection: close set,
	// Connection: close on the response too; if HTTP/1.1 without explicit
	// close, set Connection: keep-alive").
	Connection string
}

// WriteTo serializes the response to bw per the wire format in §4.5,
// flushing before returning.
func (r *Response) WriteTo(bw *bufio.Writer, opts wireOpts) error {
	if r.chunkThreshold <= 0 {
		r.chunkThreshold = DefaultChunkThreshold
	}

	encoding := r.selectEncoding(opts)
	// headersBody governs which framing headers are emitted: HEAD's
	// response headers must match its GET equivalent even though no body
	// bytes are sent (§8). sendBody governs the actual body bytes.
	headersBody := bodyAllowedForStatus(r.status)
	sendBody := headersBody && opts.Method != MethodHead

	if encoding == encIdentity && r.length < 0 {
		// Identity framing with an unknown length (HTTP/1.0, or a client
		// whose TE prefers identity): buffer fully to learn the length
		// before the status line can be written.
		buf, err := io.ReadAll(r.body)
		if err != nil {
			return err
		}
		r.body = bytes.NewReader(buf)
		r.length = int64(len(buf))
	}

	if _, err := fmt.Fprintf(bw, "HTTP/%d.%d %d %s\r\n", opts.Version.Major, opts.Version.Minor, r.status, ReasonPhrase(r.status)); err != nil {
		return err
	}

	if !r.headers.Has("Date") && opts.DateValue != "" {
		if err := writeHeaderLine(bw, "Date", opts.DateValue); err != nil {
			return err
		}
	}
	if !r.headers.Has("Server") && opts.ServerName != "" {
		if err := writeHeaderLine(bw, "Server", opts.ServerName); err != nil {
			return err
		}
	}
	for _, h := range r.headers {
		if r.filtered(h.Field) {
			continue
		}
		if err := writeHeaderLine(bw, h.Field, h.Value); err != nil {
			return err
		}
	}
	if !r.filtered("content-length") && headersBody && encoding == encIdentity {
		if err := writeHeaderLine(bw, "Content-Length", strconv.FormatInt(r.length, 10)); err != nil {
			return err
		}
	}
	if headersBody && encoding == encChunked {
		if err := writeHeaderLine(bw, "Transfer-Encoding", "chunked"); err != nil {
			return err
		}
	}
	if opts.Connection != "" {
		if err := writeHeaderLine(bw, "Connection", opts.Connection); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}

	if !sendBody {
		return bw.Flush()
	}

	if encoding == encChunked {
		cw := newChunkedWriter(bw)
		if _, err := io.Copy(cw, r.body); err != nil {
			return err
		}
		if err := cw.Close(); err != nil {
			return err
		}
	} else {
		if _, err := io.Copy(bw, r.body); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeHeaderLine(bw *bufio.Writer, field, value string) error {
	if _, err := bw.WriteString(field); err != nil {
		return err
	}
	if _, err := bw.WriteString(": "); err != nil {
		return err
	}
	if _, err := bw.WriteString(value); err != nil {
		return err
	}
	_, err := bw.WriteString("\r\n")
	return err
}

type transferEncoding int

const (
	encIdentity transferEncoding = iota
	encChunked
)

// selectEncoding implements the §4.5 decision table.
func (r *Response) selectEncoding(opts wireOpts) transferEncoding {
	if !opts.Version.AtLeast(HTTP11) {
		return encIdentity
	}
	if r.status < 200 || r.status == StatusNoContent {
		return encIdentity
	}
	if opts.TE != "" {
		preferChunked, preferIdentity := parseTEPreference(opts.TE)
		if preferIdentity && !preferChunked {
			return encIdentity
		}
		if preferChunked {
			return encChunked
		}
	}
	if r.length < 0 || r.length >= int64(r.chunkThreshold) {
		return encChunked
	}
	return encIdentity
}

// parseTEPreference parses a TE header value of comma-separated
// `token[;q=value]` items and reports whether chunked and/or identity
// were named with a positive q-value, honoring whichever has the higher
// q (ties favor chunked, since it is always a safe choice to offer).
func parseTEPreference(te string) (chunked, identity bool) {
	var chunkedQ, identityQ float64 = -1, -1
	for _, item := range strings.Split(te, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ";")
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		q := 1.0
		for _, p := range parts[1:] {
			p = strings.TrimSpace(p)
			if v, ok := strings.CutPrefix(p, "q="); ok {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					q = f
				}
			}
		}
		switch name {
		case "chunked":
			chunkedQ = q
		case "identity":
			identityQ = q
		}
	}
	if chunkedQ > 0 && chunkedQ >= identityQ {
		return true, false
	}
	if identityQ > 0 {
		return false, true
	}
	return false, false
}
