package tophat

import "net/http"

// Glitch is an endpoint-error value: it carries an optional status, optional
// headers, optional proto, a short human-readable message and an optional
// longer trace, and converts deterministically into a Response. An endpoint
// never returns a raw error; it returns a Glitch (or nil on success), so
// error-to-response conversion funnels through one place (see driver.go).
type Glitch struct {
	status  int // 0 means unset -> 500 at conversion
	header  Header
	proto   string
	message string
	hasMsg  bool
	trace   string
	hasTrc  bool
}

// NewGlitch returns a Glitch with every field unset: converts to 500, empty
// body, HTTP/1.1.
func NewGlitch() *Glitch {
	return &Glitch{}
}

// BadRequest returns a Glitch that converts to 400 with an empty body.
func BadRequest() *Glitch {
	return &Glitch{status: http.StatusBadRequest}
}

// InternalServerError returns a Glitch with status left unset (so it
// converts to 500) and an empty body.
func InternalServerError() *Glitch {
	return &Glitch{}
}

// GlitchFromErr wraps err transparently: status is unset, trace is set to
// err.Error(), and message is left unset.
func GlitchFromErr(err error) *Glitch {
	if err == nil {
		return nil
	}
	return &Glitch{trace: err.Error(), hasTrc: true}
}

// WithStatus sets the status code and returns g for chaining.
func (g *Glitch) WithStatus(code int) *Glitch {
	g.status = code
	return g
}

// WithHeader sets header and returns g for chaining.
func (g *Glitch) WithHeader(h Header) *Glitch {
	g.header = h
	return g
}

// WithProto sets the response's protocol version string (e.g. "HTTP/1.1")
// and returns g for chaining. Unset, IntoResponse defaults to "HTTP/1.1",
// matching the original's version.unwrap_or(Version::HTTP_11).
func (g *Glitch) WithProto(proto string) *Glitch {
	g.proto = proto
	return g
}

// WithMessage sets the short message and returns g for chaining.
func (g *Glitch) WithMessage(msg string) *Glitch {
	g.message, g.hasMsg = msg, true
	return g
}

// WithTrace sets the longer trace and returns g for chaining.
func (g *Glitch) WithTrace(trace string) *Glitch {
	g.trace, g.hasTrc = trace, true
	return g
}

// IntoResponse converts the Glitch to a final Response. When verbose is
// true and both a message and a trace are present, the body is
// "<message>\n<trace>"; otherwise the message is preferred, then the trace
// (only if verbose), else the body is empty. Non-empty text bodies get
// Content-Type: text/plain.
func (g *Glitch) IntoResponse(verbose bool) *Response {
	resp := NewResponse()

	status := g.status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	resp.StatusCode = status

	if g.proto != "" {
		resp.Proto = g.proto
	}

	if g.header.Len() > 0 {
		resp.Header = g.header.Clone()
	}

	var body string
	switch {
	case verbose && g.hasMsg && g.hasTrc:
		body = g.message + "\n" + g.trace
	case g.hasMsg:
		body = g.message
	case verbose && g.hasTrc:
		body = g.trace
	}

	if body != "" {
		resp.Body = NewBodyFromBytes([]byte(body))
		resp.Header.Set("Content-Type", "text/plain")
	} else {
		resp.Body = EmptyBody()
	}
	return resp
}

// OrGlitch converts a (value, error) pair into (value, *Glitch): if err is
// nil, it passes val through unchanged with a nil Glitch. Otherwise it
// returns the zero value and a Glitch carrying err's message at status.
// This is the Go analogue of the Rust GlitchExt trait's `.glitch(status)`
// extension method on Result<T, E>.
func OrGlitch[T any](val T, err error, status int) (T, *Glitch) {
	if err == nil {
		return val, nil
	}
	return *new(T), GlitchFromErr(err).WithStatus(status)
}

// OrGlitchCtx is OrGlitch with a fixed context message attached alongside
// the error's trace (Rust's `.glitch_ctx(status, msg)`).
func OrGlitchCtx[T any](val T, err error, status int, msg string) (T, *Glitch) {
	if err == nil {
		return val, nil
	}
	return *new(T), GlitchFromErr(err).WithStatus(status).WithMessage(msg)
}

// OrGlitchWithCtx is OrGlitch with a lazily-computed context message, so the
// message is only built when err is non-nil (Rust's
// `.glitch_with_ctx(status, || msg)`).
func OrGlitchWithCtx[T any](val T, err error, status int, msgFn func() string) (T, *Glitch) {
	if err == nil {
		return val, nil
	}
	return *new(T), GlitchFromErr(err).WithStatus(status).WithMessage(msgFn())
}

// OptGlitch converts a possibly-nil pointer into (value, *Glitch): nil
// becomes a Glitch at status with an empty body (Rust's GlitchExt on
// Option<T>, `.glitch(status)`).
func OptGlitch[T any](val *T, status int) (*T, *Glitch) {
	if val != nil {
		return val, nil
	}
	return nil, NewGlitch().WithStatus(status)
}

// OptGlitchCtx is OptGlitch with an attached message.
func OptGlitchCtx[T any](val *T, status int, msg string) (*T, *Glitch) {
	if val != nil {
		return val, nil
	}
	return nil, NewGlitch().WithStatus(status).WithMessage(msg)
}
