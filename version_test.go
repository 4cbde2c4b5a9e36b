package tinyhttpd

import "testing"

func TestHTTPVersionAtLeast(t *testing.T) {
	cases := []struct {
		v, other HTTPVersion
		want     bool
	}{
		{HTTP11, HTTP10, true},
		{HTTP10, HTTP11, false},
		{HTTP11, HTTP11, true},
		{HTTPVersion{1, 0}, HTTP09, true},
		{HTTP09, HTTP10, false},
	}
	for _, c := range cases {
		if got := c.v.AtLeast(c.other); got != c.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", c.v, c.other, got, c.want)
		}
	}
}

func TestHTTPVersionSupported(t *testing.T) {
	for _, v := range []HTTPVersion{HTTP09, HTTP10, HTTP11} {
		if !v.Supported() {
			t.Errorf("%s should be supported", v)
		}
	}
	if (HTTPVersion{2, 0}).Supported() {
		t.Errorf("HTTP/2.0 should not be supported by this core")
	}
}

func TestHTTPVersionString(t *testing.T) {
	if HTTP11.String() != "HTTP/1.1" {
		t.Errorf("got %q", HTTP11.String())
	}
}
