package tinyhttpd

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// errLineTooLong is returned internally by readRawLine when a line exceeds
// the caller-supplied byte budget. It never escapes this file.
var errLineTooLong = errors.New("tinyhttpd: line exceeds configured limit")

// readRawLine reads one CRLF- or bare-LF-terminated line (§4.3: "lines end
// at CRLF (or bare LF, tolerated with a debug log)"), stripping the
// terminator, and reports whether the terminator was a bare LF so the
// caller can decide whether to log it. maxLen bounds the line excluding
// the terminator; io.EOF is returned verbatim so callers can distinguish
// "no more requests on this connection" from a parse failure.
func readRawLine(br *bufio.Reader, maxLen int) (line []byte, bareLF bool, consumed int, err error) {
	raw, err := br.ReadSlice('\n')
	if err != nil {
		if err == bufio.ErrBufferFull {
			// Keep reading until we either find \n or blow the budget —
			// ReadSlice only reports what fit in bufio's internal buffer.
			buf := append([]byte(nil), raw...)
			for {
				if len(buf) > maxLen {
					return nil, false, len(buf), errLineTooLong
				}
				more, e := br.ReadSlice('\n')
				buf = append(buf, more...)
				if e == nil {
					raw = buf
					err = nil
					break
				}
				if e != bufio.ErrBufferFull {
					return nil, false, len(buf), e
				}
			}
		} else {
			return nil, false, len(raw), err
		}
	}
	consumed = len(raw)
	if consumed > maxLen+2 {
		return nil, false, consumed, errLineTooLong
	}
	if len(raw) > 0 && raw[len(raw)-1] == '\n' {
		raw = raw[:len(raw)-1]
		bareLF = true
		if len(raw) > 0 && raw[len(raw)-1] == '\r' {
			raw = raw[:len(raw)-1]
			bareLF = false
		}
	}
	return raw, bareLF, consumed, nil
}

// requestLine is the parsed first line of a request.
type requestLine struct {
	Method  string
	Target  string
	Version HTTPVersion
}

// parseRequestLine parses `METHOD SP target SP HTTP/major.minor` per
// §4.3. io.EOF propagates unchanged (no bytes at all means the peer
// closed the connection between pipelined requests, not a parse error).
func parseRequestLine(br *bufio.Reader, limits *Limits, logger Logger) (requestLine, int, *ReadError, error) {
	raw, bareLF, n, err := readRawLine(br, limits.HeaderLineLen)
	if bareLF {
		logger.Debugf("tinyhttpd: request line terminated by bare LF")
	}
	if err != nil {
		if err == errLineTooLong {
			return requestLine{}, n, newProtocolErr(HTTPVersion{}, StatusURITooLong, err), nil
		}
		if err == io.EOF && n == 0 {
			return requestLine{}, 0, nil, io.EOF
		}
		return requestLine{}, n, nil, err
	}

	fields := strings.Split(string(raw), " ")
	if len(fields) != 3 {
		return requestLine{}, n, newRequestLineErr(HTTPVersion{}, errors.New("expected exactly three fields")), nil
	}
	method, target, proto := fields[0], fields[1], fields[2]
	if method == "" || !validTargetBytes(target) {
		return requestLine{}, n, newRequestLineErr(HTTPVersion{}, errors.New("invalid method or target")), nil
	}

	version, ok := parseHTTPVersion(proto)
	if !ok {
		return requestLine{}, n, newRequestLineErr(HTTPVersion{}, errors.New("malformed HTTP version token")), nil
	}
	if !version.Supported() {
		return requestLine{}, n, newVersionErr(version), nil
	}

	return requestLine{Method: method, Target: target, Version: version}, n, nil, nil
}

// validTargetBytes reports whether every byte of target is in the
// printable URL subset [33,126] (§4.3: "any byte outside [33,126]
// excluding space is rejected").
func validTargetBytes(target string) bool {
	if target == "" {
		return false
	}
	for i := 0; i < len(target); i++ {
		b := target[i]
		if b < 33 || b > 126 {
			return false
		}
	}
	return true
}

// parseHTTPVersion parses the literal "HTTP/major.minor" token.
func parseHTTPVersion(tok string) (HTTPVersion, bool) {
	const prefix = "HTTP/"
	if !strings.HasPrefix(tok, prefix) {
		return HTTPVersion{}, false
	}
	rest := tok[len(prefix):]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return HTTPVersion{}, false
	}
	major, err := strconv.Atoi(rest[:dot])
	if err != nil || major < 0 {
		return HTTPVersion{}, false
	}
	minor, err := strconv.Atoi(rest[dot+1:])
	if err != nil || minor < 0 {
		return HTTPVersion{}, false
	}
	return HTTPVersion{Major: major, Minor: minor}, true
}

// parseHeaderSection reads header lines up to the terminating blank line,
// enforcing the per-line and total byte budgets from limits. headBytes is
// the number of header-section bytes already consumed (the request line),
// so the caller's running total-size check stays accurate.
func parseHeaderSection(br *bufio.Reader, limits *Limits, version HTTPVersion, headBytes int, logger Logger) (HeaderList, *ReadError) {
	var headers HeaderList
	total := headBytes

	for {
		raw, bareLF, n, err := readRawLine(br, limits.HeaderLineLen)
		if err != nil {
			if err == errLineTooLong {
				return nil, newProtocolErr(version, StatusRequestHeaderFieldsTooLarge, err)
			}
			return nil, newHeaderErr(version, err)
		}
		if bareLF {
			logger.Debugf("tinyhttpd: header line terminated by bare LF")
		}
		total += n
		if total > limits.HeaderMaxSize {
			return nil, newProtocolErr(version, StatusRequestHeaderFieldsTooLarge, errors.New("header section too large"))
		}
		if len(raw) == 0 {
			return headers, nil
		}
		if isBlankBytes(raw) {
			return nil, newRfcViolationErr(version, errors.New("header line is all whitespace"))
		}
		if err := validateHeaderBytes(raw); err != nil {
			return nil, newRfcViolationErr(version, err)
		}

		colon := indexByte(raw, ':')
		if colon < 0 {
			return nil, newHeaderErr(version, errors.New("missing ':' in header line"))
		}
		field := string(raw[:colon])
		if strings.TrimRight(field, " \t") != field {
			// Whitespace before the colon: rejected outright rather than
			// trimmed, to close the "Transfer-Encoding : chunked" smuggling
			// gap (§4.3).
			return nil, newRfcViolationErr(version, errors.New("whitespace before ':' in header field name"))
		}
		value := strings.Trim(string(raw[colon+1:]), " \t")
		headers.Append(field, value)
	}
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func isBlankBytes(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' {
			return false
		}
	}
	return len(b) > 0
}

// validateHeaderBytes rejects control bytes below 0x20 other than HT, plus
// DEL, per §4.3.
func validateHeaderBytes(b []byte) error {
	for _, c := range b {
		if c == 0x09 {
			continue
		}
		if c < 0x20 || c == 0x7F {
			return errors.New("control byte in header line")
		}
	}
	return nil
}
