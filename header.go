package tinyhttpd

import "strings"

// Header is one field/value pair as read off (or about to be written to)
// the wire. Field comparison is case-insensitive per RFC 7230 §3.2, but the
// original casing is preserved for re-serialization.
type Header struct {
	Field string
	Value string
}

// HeaderList is an ordered multi-map of headers: duplicates are preserved
// in arrival order, matching HTTP's "multiple header lines with the same
// field name" semantics (§3 Data Model: "headers (owned vector)").
type HeaderList []Header

// forbiddenFields cannot be set through the public Header API — the core
// owns Connection/Trailer/Transfer-Encoding/Upgrade framing and would
// otherwise be vulnerable to smuggling via application-supplied values.
var forbiddenFields = map[string]struct{}{
	"connection":        {},
	"trailer":           {},
	"transfer-encoding": {},
	"upgrade":           {},
}

// IsForbiddenField reports whether field is one of the framing headers the
// public API refuses to let callers set directly.
func IsForbiddenField(field string) bool {
	_, ok := forbiddenFields[strings.ToLower(field)]
	return ok
}

// Get returns the first value for field (case-insensitive), and whether it
// was present at all.
func (h HeaderList) Get(field string) (string, bool) {
	for _, kv := range h {
		if strings.EqualFold(kv.Field, field) {
			return kv.Value, true
		}
	}
	return "", false
}

// GetAll returns every value stored for field, in arrival order.
func (h HeaderList) GetAll(field string) []string {
	var out []string
	for _, kv := range h {
		if strings.EqualFold(kv.Field, field) {
			out = append(out, kv.Value)
		}
	}
	return out
}

// Has reports whether field appears at all.
func (h HeaderList) Has(field string) bool {
	_, ok := h.Get(field)
	return ok
}

// Append adds a field/value pair unconditionally, without the forbidden-set
// check — used internally by the parser (which must be able to read a
// Connection header off the wire) and by response serialization (which
// writes Connection/Transfer-Encoding itself).
func (h *HeaderList) Append(field, value string) {
	*h = append(*h, Header{Field: field, Value: value})
}

// connectionTokens splits a Connection header value into its lower-cased,
// trimmed tokens (it may list several: "close", "keep-alive", "upgrade").
func connectionTokens(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
