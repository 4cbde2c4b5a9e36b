package tinyhttpd

// Status codes referenced directly by the core per the error handling and
// wire-format designs (§4.5, §7). Applications are free to write any status
// code; this list only names the ones the server itself emits.
const (
	StatusContinue           = 100
	StatusSwitchingProtocols = 101

	StatusOK             = 200
	StatusNoContent      = 204
	StatusPartialContent = 206

	StatusNotModified = 304

	StatusBadRequest                = 400
	StatusRequestTimeout             = 408
	StatusExpectationFailed          = 417
	StatusURITooLong                 = 414
	StatusRequestHeaderFieldsTooLarge = 431
	StatusRangeNotSatisfiable        = 416

	StatusInternalServerError     = 500
	StatusHTTPVersionNotSupported = 505
)

var reasonPhrases = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",
	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	416: "Range Not Satisfiable",
	417: "Expectation Failed",
	418: "I'm a teapot",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// ReasonPhrase returns the standard reason phrase for code, or "Unknown
// Status" if code isn't one we recognize — the status line still carries
// the numeric code either way.
func ReasonPhrase(code int) string {
	if p, ok := reasonPhrases[code]; ok {
		return p
	}
	return "Unknown Status"
}

// bodyAllowedForStatus reports whether status's class ever carries a
// message body, per the wire-format design (§4.5): 1xx, 204 and 304 never
// do, regardless of method.
func bodyAllowedForStatus(status int) bool {
	if status >= 100 && status < 200 {
		return false
	}
	switch status {
	case StatusNoContent, StatusNotModified:
		return false
	}
	return true
}
