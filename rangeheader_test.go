package tinyhttpd

import (
	"bytes"
	"io"
	"testing"
)

func TestApplyRangeSatisfiable(t *testing.T) {
	data := []byte("0123456789")
	resp := NewResponse(StatusOK, bytes.NewReader(data), int64(len(data)))
	if err := ApplyRange(resp, "bytes=2-4", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("ApplyRange: %v", err)
	}
	if resp.Status() != StatusPartialContent {
		t.Fatalf("status = %d, want 206", resp.Status())
	}
	got, err := io.ReadAll(resp.body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(got) != "234" {
		t.Fatalf("body = %q, want %q", got, "234")
	}
	if v, _ := resp.Header().Get("Content-Range"); v != "bytes 2-4/10" {
		t.Fatalf("Content-Range = %q", v)
	}
}

func TestApplyRangeUnsatisfiableFiltersHeaders(t *testing.T) {
	data := []byte("0123456789")
	resp := NewResponse(StatusOK, bytes.NewReader(data), int64(len(data)))
	_ = resp.SetHeader("Content-Type", "text/plain")
	if err := ApplyRange(resp, "bytes=100-200", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("ApplyRange: %v", err)
	}
	if resp.Status() != StatusRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", resp.Status())
	}
	if !resp.filtered("content-length") || !resp.filtered("content-type") {
		t.Fatalf("416 response must filter Content-Length and Content-Type")
	}
}

func TestParseSingleRange(t *testing.T) {
	const total = int64(1000)
	cases := []struct {
		value          string
		wantStart, wantEnd int64
		wantOK         bool
	}{
		{"bytes=0-499", 0, 499, true},
		{"bytes=500-999", 500, 999, true},
		{"bytes=500-", 500, 999, true},
		{"bytes=-500", 500, 999, true},
		{"bytes=-2000", 0, 999, true}, // suffix longer than resource clamps to whole thing
		{"bytes=0-1999", 0, 999, true}, // end clamps to last byte
		{"bytes=1000-1999", 0, 0, false}, // start out of bounds
		{"bytes=500-200", 0, 0, false},   // inverted range
		{"bytes=0-499,600-700", 0, 0, false}, // multi-range always unsatisfied
		{"items=0-499", 0, 0, false},          // wrong unit
		{"bytes=", 0, 0, false},
	}
	for _, c := range cases {
		start, end, ok := parseSingleRange(c.value, total)
		if ok != c.wantOK {
			t.Errorf("parseSingleRange(%q) ok = %v, want %v", c.value, ok, c.wantOK)
			continue
		}
		if ok && (start != c.wantStart || end != c.wantEnd) {
			t.Errorf("parseSingleRange(%q) = (%d,%d), want (%d,%d)", c.value, start, end, c.wantStart, c.wantEnd)
		}
	}
}

func TestParseSingleRangeZeroLengthResourceAlwaysUnsatisfied(t *testing.T) {
	if _, _, ok := parseSingleRange("bytes=0-0", 0); ok {
		t.Fatal("a zero-length resource can never satisfy a range")
	}
}
