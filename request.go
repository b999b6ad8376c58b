package tophat

import (
	"context"
	"fmt"
)

// Request is a parsed HTTP/1.1 request. The decoder requires a Host header
// for every request-target form, and Host is always taken from that header;
// the authority of an absolute-form target is not used for it.
type Request struct {
	Method        string
	Target        string // literal request-target, unmodified
	URL           *URL
	Proto         string
	ProtoMajor    int
	ProtoMinor    int
	Header        Header
	Host          string
	ContentLength int64 // -1 when the body is chunked (length unknown)
	Body          *Body

	ctx context.Context
}

// String returns the request line as it appeared on the wire.
func (r *Request) String() string {
	if r == nil {
		return "<nil request>"
	}
	return fmt.Sprintf("%s %s %s", r.Method, r.Target, r.Proto)
}

// Context returns the request's context, defaulting to context.Background.
func (r *Request) Context() context.Context {
	if r == nil || r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r with its context replaced by ctx.
// As with net/http, ctx must be non-nil.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("tophat: nil context")
	}
	cp := *r
	cp.ctx = ctx
	return &cp
}
