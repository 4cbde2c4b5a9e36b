package tinyhttpd

import "testing"

func TestHeaderListGetCaseInsensitive(t *testing.T) {
	var h HeaderList
	h.Append("Content-Type", "text/plain")
	v, ok := h.Get("content-type")
	if !ok || v != "text/plain" {
		t.Fatalf("Get(content-type) = %q, %v", v, ok)
	}
}

func TestHeaderListGetAllPreservesOrder(t *testing.T) {
	var h HeaderList
	h.Append("X-A", "1")
	h.Append("x-a", "2")
	h.Append("X-A", "3")
	got := h.GetAll("X-A")
	want := []string{"1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIsForbiddenField(t *testing.T) {
	for _, f := range []string{"Connection", "connection", "Transfer-Encoding", "Upgrade", "Trailer"} {
		if !IsForbiddenField(f) {
			t.Errorf("%q should be forbidden", f)
		}
	}
	if IsForbiddenField("Content-Type") {
		t.Errorf("Content-Type should not be forbidden")
	}
}

func TestConnectionTokens(t *testing.T) {
	tokens := connectionTokens("keep-alive, Upgrade")
	if !hasToken(tokens, "keep-alive") || !hasToken(tokens, "upgrade") {
		t.Fatalf("got %v", tokens)
	}
}
