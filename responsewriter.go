package tophat

import (
	"context"
	"fmt"
	"io"
)

// ResponseWritten is the token returned by ResponseWriter.Send. Go has no
// affine types, so the token itself can be constructed anywhere and proves
// nothing; "a response was sent" is enforced at runtime instead of compile
// time: the driver checks ResponseWriter.Written after
// the endpoint returns and substitutes a 500 if the endpoint returned
// success without ever calling Send.
type ResponseWritten struct {
	BytesWritten int64
}

// ResponseWriter is a handle owning the outbound byte sink and a mutable
// Response. Every setter returns the writer for chaining; Send is the one
// terminal operation.
type ResponseWriter struct {
	w        io.Writer
	resp     *Response
	written  bool
	bytesOut int64
}

// NewResponseWriter builds a writer around sink with a freshly-initialized
// Response. The driver normally constructs one per request over the
// connection itself; this constructor is exported so an Endpoint can be
// exercised directly in a test, or composed into another transport, without
// going through Accept.
func NewResponseWriter(w io.Writer) *ResponseWriter {
	return &ResponseWriter{w: w, resp: NewResponse()}
}

func newResponseWriter(w io.Writer) *ResponseWriter { return NewResponseWriter(w) }

// SetStatus sets the status code.
func (rw *ResponseWriter) SetStatus(code int) *ResponseWriter {
	rw.resp.StatusCode = code
	return rw
}

// SetCode is an alias of SetStatus that panics on an out-of-range code, for
// parity with call sites that want a hard failure on a programmer error
// rather than an invalid wire status.
func (rw *ResponseWriter) SetCode(code int) *ResponseWriter {
	if code < 100 || code > 599 {
		panic(fmt.Sprintf("tophat: invalid status code %d", code))
	}
	rw.resp.StatusCode = code
	return rw
}

// SetBody replaces the response body.
func (rw *ResponseWriter) SetBody(b *Body) *ResponseWriter {
	rw.resp.Body = b
	return rw
}

// SetText sets the body to s and Content-Type to text/plain.
func (rw *ResponseWriter) SetText(s string) *ResponseWriter {
	rw.resp.Body = NewBodyFromBytes([]byte(s))
	rw.resp.Header.Set("Content-Type", "text/plain")
	return rw
}

// SetSSE wraps r as the response body and sets Content-Type to
// text/event-stream. The caller is responsible for formatting r's bytes as
// "event: ...\ndata: ...\n\n" frames (see package sse for a helper).
func (rw *ResponseWriter) SetSSE(r io.Reader) *ResponseWriter {
	rw.resp.Body = NewBody(r)
	rw.resp.Header.Set("Content-Type", "text/event-stream")
	return rw
}

// AppendHeader adds a header value without clearing existing values.
func (rw *ResponseWriter) AppendHeader(key, value string) *ResponseWriter {
	rw.resp.Header.Add(key, value)
	return rw
}

// InsertHeader replaces any existing values for key with value.
func (rw *ResponseWriter) InsertHeader(key, value string) *ResponseWriter {
	rw.resp.Header.Set(key, value)
	return rw
}

// Response returns the mutable response being built.
func (rw *ResponseWriter) Response() *Response { return rw.resp }

// Send serializes the current response through the encoder and consumes
// the writer: calling Send a second time returns an error rather than
// writing again.
func (rw *ResponseWriter) Send(ctx context.Context) (ResponseWritten, error) {
	if rw.written {
		return ResponseWritten{}, fmt.Errorf("tophat: response already sent")
	}
	n, err := encodeResponse(ctx, rw.w, rw.resp)
	rw.written = true
	rw.bytesOut = n
	if err != nil {
		return ResponseWritten{BytesWritten: n}, err
	}
	return ResponseWritten{BytesWritten: n}, nil
}

// SendCode sets the status code then sends.
func (rw *ResponseWriter) SendCode(ctx context.Context, code int) (ResponseWritten, error) {
	rw.SetStatus(code)
	return rw.Send(ctx)
}

// Written reports whether Send has already been called.
func (rw *ResponseWriter) Written() bool { return rw.written }

// Endpoint is the user-supplied handler: it consumes req's body, populates
// rw, and must call rw.Send exactly once before returning a nil Glitch. If
// it returns a non-nil Glitch, the driver sends glitch.IntoResponse instead
// of whatever rw may have accumulated.
type Endpoint func(ctx context.Context, rw *ResponseWriter, req *Request) (ResponseWritten, *Glitch)
