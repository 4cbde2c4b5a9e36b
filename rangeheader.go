package tinyhttpd

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ApplyRange is the optional byte-range subsystem (§4.5, RFC 9110 §14). A
// caller serving a seekable resource passes its Range header value and
// total length; ApplyRange rewrites resp in place to either a single
// satisfiable 206 slice or an unsatisfiable 416 with Content-Length and
// Content-Type filtered out. Multi-range requests are always treated as
// unsatisfied, per §4.5 — this server only ever serves one range.
func ApplyRange(resp *Response, rangeHeader string, body io.ReadSeeker, totalLength int64) error {
	start, end, ok := parseSingleRange(rangeHeader, totalLength)
	if !ok {
		resp.SetStatus(StatusRangeNotSatisfiable)
		resp.Filter("content-length")
		resp.Filter("content-type")
		_ = resp.SetHeader("Content-Range", fmt.Sprintf("bytes */%d", totalLength))
		resp.body = bytes.NewReader(nil)
		resp.length = 0
		return nil
	}

	if _, err := body.Seek(start, io.SeekStart); err != nil {
		return err
	}
	resp.body = io.LimitReader(body, end-start+1)
	resp.length = end - start + 1
	resp.SetStatus(StatusPartialContent)
	return resp.SetHeader("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, totalLength))
}

// parseSingleRange parses exactly one `bytes=start-end`, `bytes=start-`,
// or `bytes=-suffixLength` spec against totalLength. Anything else —
// missing "bytes=" prefix, a comma-separated list, an out-of-bounds or
// inverted range, or a zero-length resource — reports ok=false.
func parseSingleRange(value string, totalLength int64) (start, end int64, ok bool) {
	if totalLength <= 0 {
		return 0, 0, false
	}
	const prefix = "bytes="
	if !strings.HasPrefix(value, prefix) {
		return 0, 0, false
	}
	spec := strings.TrimSpace(value[len(prefix):])
	if strings.Contains(spec, ",") {
		return 0, 0, false
	}

	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return 0, 0, false
	}
	lhs, rhs := spec[:dash], spec[dash+1:]

	if lhs == "" {
		if rhs == "" {
			return 0, 0, false
		}
		suffixLen, err := strconv.ParseInt(rhs, 10, 64)
		if err != nil || suffixLen <= 0 {
			return 0, 0, false
		}
		if suffixLen > totalLength {
			suffixLen = totalLength
		}
		return totalLength - suffixLen, totalLength - 1, true
	}

	s, err := strconv.ParseInt(lhs, 10, 64)
	if err != nil || s < 0 {
		return 0, 0, false
	}
	var e int64
	if rhs == "" {
		e = totalLength - 1
	} else {
		e, err = strconv.ParseInt(rhs, 10, 64)
		if err != nil || e < s {
			return 0, 0, false
		}
	}
	if e >= totalLength {
		e = totalLength - 1
	}
	if s >= totalLength || s > e {
		return 0, 0, false
	}
	return s, e, true
}
