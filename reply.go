package tophat

import "context"

// Text builds a 200 response with body s and Content-Type: text/plain, for
// endpoints that want a one-line success reply without touching a
// ResponseWriter directly.
func Text(s string) *Response {
	resp := NewResponse()
	resp.Body = NewBodyFromBytes([]byte(s))
	resp.Header.Set("Content-Type", "text/plain")
	return resp
}

// Code builds a response with an empty body at the given status.
func Code(status int) *Response {
	resp := NewResponse()
	resp.StatusCode = status
	resp.Body = EmptyBody()
	return resp
}

// CodeWithBody builds a response at the given status with body s and
// Content-Type: text/plain.
func CodeWithBody(status int, s string) *Response {
	resp := Text(s)
	resp.StatusCode = status
	return resp
}

// SendResponse writes a pre-built Response through rw in one call, for
// handlers that construct the whole Response with Text/Code/CodeWithBody
// rather than using rw's setters.
func (rw *ResponseWriter) SendResponse(ctx context.Context, resp *Response) (ResponseWritten, error) {
	rw.resp = resp
	return rw.Send(ctx)
}
