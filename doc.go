// Package tinyhttpd implements the core of an embeddable HTTP/1.x server:
// socket accept, request/response framing, pipelining, and the concurrency
// machinery that ties them together behind a small handler-facing API.
//
// It does not route requests, serve files, or speak HTTP/2 or HTTP/3 — it
// hands callers a Request iterator per connection and a Response writer,
// and gets out of the way.
package tinyhttpd
