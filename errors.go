package tinyhttpd

import (
	"errors"
	"fmt"
)

// ReadError is the taxonomy of failures a Connection's request iterator can
// surface while parsing one request off the wire. Every variant carries
// enough information for Connection.Next to decide which status to write
// back (if any) before closing or continuing, per the error handling design.
type ReadError struct {
	Kind    ReadErrorKind
	Version HTTPVersion
	Status  int   // explicit status for HTTPProtocol / zero otherwise
	Err     error // wrapped cause, may be nil
}

func (e *ReadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tinyhttpd: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("tinyhttpd: %s", e.Kind)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ReadErrorKind enumerates the taxonomy from the error handling design.
type ReadErrorKind int

const (
	// ErrRequestLine: malformed request-line → respond 400, close.
	ErrRequestLine ReadErrorKind = iota
	// ErrRfcViolation: forbidden bytes in headers → respond 400, close.
	ErrRfcViolation
	// ErrHeader: unparseable header → respond 400, close.
	ErrHeader
	// ErrHTTPProtocol: well-typed protocol violation mapping to an explicit
	// status (400, 414, 431, ...) → respond Status, close.
	ErrHTTPProtocol
	// ErrHTTPVersion: unsupported version → respond 505, close.
	ErrHTTPVersion
	// ErrExpectationFailed: unrecognized Expect → respond 417; connection
	// may continue only if no body was indicated.
	ErrExpectationFailed
	// ErrReadIOTimeout: blocking read exceeded the configured deadline →
	// respond 408, close.
	ErrReadIOTimeout
	// ErrReadIOOther: any other I/O error reading from the socket → close
	// silently, no response attempted.
	ErrReadIOOther
	// errWouldBlock is an internal sentinel; never surfaced to callers.
	errWouldBlock
)

func (k ReadErrorKind) String() string {
	switch k {
	case ErrRequestLine:
		return "malformed request line"
	case ErrRfcViolation:
		return "RFC violation in header bytes"
	case ErrHeader:
		return "unparseable header"
	case ErrHTTPProtocol:
		return "HTTP protocol violation"
	case ErrHTTPVersion:
		return "unsupported HTTP version"
	case ErrExpectationFailed:
		return "unrecognized Expect value"
	case ErrReadIOTimeout:
		return "read timeout"
	case ErrReadIOOther:
		return "read I/O error"
	default:
		return "internal"
	}
}

func newRequestLineErr(v HTTPVersion, err error) *ReadError {
	return &ReadError{Kind: ErrRequestLine, Version: v, Status: StatusBadRequest, Err: err}
}

func newRfcViolationErr(v HTTPVersion, err error) *ReadError {
	return &ReadError{Kind: ErrRfcViolation, Version: v, Status: StatusBadRequest, Err: err}
}

func newHeaderErr(v HTTPVersion, err error) *ReadError {
	return &ReadError{Kind: ErrHeader, Version: v, Status: StatusBadRequest, Err: err}
}

func newProtocolErr(v HTTPVersion, status int, err error) *ReadError {
	return &ReadError{Kind: ErrHTTPProtocol, Version: v, Status: status, Err: err}
}

func newVersionErr(v HTTPVersion) *ReadError {
	return &ReadError{Kind: ErrHTTPVersion, Version: v, Status: StatusHTTPVersionNotSupported}
}

func newExpectationFailedErr(v HTTPVersion) *ReadError {
	return &ReadError{Kind: ErrExpectationFailed, Version: v, Status: StatusExpectationFailed}
}

func newTimeoutErr(v HTTPVersion, err error) *ReadError {
	return &ReadError{Kind: ErrReadIOTimeout, Version: v, Status: StatusRequestTimeout, Err: err}
}

func newReadIOErr(v HTTPVersion, err error) *ReadError {
	return &ReadError{Kind: ErrReadIOOther, Version: v, Err: err}
}

// respondable reports whether this error kind expects a status response to
// be written before the connection closes.
func (e *ReadError) respondable() bool {
	switch e.Kind {
	case ErrReadIOOther, errWouldBlock:
		return false
	default:
		return true
	}
}

// ErrWouldBlock is the internal sentinel for a non-blocking probe that found
// nothing ready; it is never returned from the public iterator.
var ErrWouldBlock = errors.New("tinyhttpd: would block")

// ErrWriterConsumed is returned by Request methods that require exclusive
// use of the response writer (Respond, IntoWriter, Upgrade) when it was
// already consumed.
var ErrWriterConsumed = errors.New("tinyhttpd: request writer already consumed")

// ErrForbiddenHeader is returned when application code attempts to set one
// of the framing headers the server manages itself.
var ErrForbiddenHeader = errors.New("tinyhttpd: header field is managed by the server and cannot be set directly")

// ErrQueueClosed is returned by Queue.Push/Pop once the queue has been shut
// down via Close.
var ErrQueueClosed = errors.New("tinyhttpd: queue closed")

// ErrServerClosed is returned by Serve-family methods after Shutdown/Close.
var ErrServerClosed = errors.New("tinyhttpd: server closed")

// isClientDisappearance reports whether err represents a client going away
// mid-response (broken pipe, reset, aborted) — per the error handling
// design these are swallowed rather than surfaced to the application.
func isClientDisappearance(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"broken pipe",
		"connection reset by peer",
		"connection reset",
		"software caused connection abort",
		"use of closed network connection",
	} {
		if containsFold(msg, s) {
			return true
		}
	}
	return false
}
