package tophat

import "net/http"

// Response is a status code, an HTTP version, a header multi-map, and a
// Body. The encoder — not the caller — owns the framing headers
// (Content-Length, Transfer-Encoding): any the caller sets are discarded at
// encode time (see encode.go).
type Response struct {
	Proto      string
	StatusCode int
	Header     Header
	Body       *Body
}

// NewResponse returns the default response: 200, empty body, empty headers.
func NewResponse() *Response {
	return &Response{
		Proto:      "HTTP/1.1",
		StatusCode: http.StatusOK,
		Header:     NewHeader(),
		Body:       EmptyBody(),
	}
}

// reasonPhrase returns the standard reason phrase for code, reusing the
// status-code table net/http already carries rather than re-deriving one.
func reasonPhrase(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return ""
}
