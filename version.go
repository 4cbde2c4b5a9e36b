package tinyhttpd

import "fmt"

// HTTPVersion is a request or response's protocol version, major.minor
// (§4.3: "Only versions 0.9, 1.0, 1.1 are accepted").
type HTTPVersion struct {
	Major int
	Minor int
}

var (
	HTTP09 = HTTPVersion{0, 9}
	HTTP10 = HTTPVersion{1, 0}
	HTTP11 = HTTPVersion{1, 1}
)

func (v HTTPVersion) String() string {
	if v == HTTP09 {
		return "HTTP/0.9"
	}
	return fmt.Sprintf("HTTP/%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is the same or a later version than other.
func (v HTTPVersion) AtLeast(other HTTPVersion) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor >= other.Minor
}

// Supported reports whether v is one of the three versions this server
// understands. Anything else — including 2.0 and 3.0 — is rejected with
// HttpVersionNotSupported per §4.3.
func (v HTTPVersion) Supported() bool {
	return v == HTTP09 || v == HTTP10 || v == HTTP11
}
