package tophat

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// Body is a lazy byte source for a request or response payload: an owned
// reader, an optional known length (nil means unknown, which forces chunked
// framing on send), and a single-shot trailer channel.
type Body struct {
	r        io.Reader
	length   *int64
	trailers *trailerChannel
}

// NewBody wraps r as a body of unknown length. Nothing feeds its trailer
// channel, so RecvTrailers on it reports ErrTrailersUnavailable.
func NewBody(r io.Reader) *Body {
	return &Body{r: r, trailers: newTrailerChannel()}
}

// NewBodyWithLength wraps r as a body of known length n.
func NewBodyWithLength(r io.Reader, n int64) *Body {
	return &Body{r: r, length: &n, trailers: newTrailerChannel()}
}

// NewBodyFromBytes builds a body from an in-memory buffer: length is known
// and the trailer channel is already closed, per the fixed-buffer invariant.
func NewBodyFromBytes(b []byte) *Body {
	n := int64(len(b))
	return &Body{r: bytes.NewReader(b), length: &n, trailers: closedTrailerChannel()}
}

// EmptyBody returns a zero-length body with an already-closed trailer
// channel, used as the default Response body.
func EmptyBody() *Body {
	return NewBodyFromBytes(nil)
}

// Length reports the body's declared length, if known.
func (b *Body) Length() (n int64, known bool) {
	if b.length == nil {
		return 0, false
	}
	return *b.length, true
}

// Read implements io.Reader, streaming the body's payload.
func (b *Body) Read(p []byte) (int, error) {
	if b.r == nil {
		return 0, io.EOF
	}
	return b.r.Read(p)
}

// Close releases the underlying reader if it is an io.Closer.
func (b *Body) Close() error {
	if c, ok := b.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ErrTrailersUnavailable is returned by RecvTrailers when the body was not
// constructed with a live trailer producer and was drained without one
// being attached.
var ErrTrailersUnavailable = errors.New("tophat: no trailers available")

// RecvTrailers blocks until the body's trailer channel delivers, the channel
// closes without delivering (ErrTrailersUnavailable), or ctx is done. A body
// whose trailer sender was never taken has no producer and reports
// ErrTrailersUnavailable at once. Reading the body to completion is a
// prerequisite for observing trailers on chunked bodies: the decoder only
// delivers at the terminating zero-chunk.
func (b *Body) RecvTrailers(ctx context.Context) (Trailers, error) {
	if !b.trailers.senderTaken.Load() {
		return Trailers{}, ErrTrailersUnavailable
	}
	tr, ok, err := b.trailers.recv(ctx)
	if err != nil {
		return Trailers{}, err
	}
	if !ok {
		return Trailers{}, ErrTrailersUnavailable
	}
	return tr, nil
}

// Bytes reads the body to completion and returns its payload.
func (b *Body) Bytes() ([]byte, error) {
	return io.ReadAll(b)
}

// String reads the body to completion and returns its payload as a string.
func (b *Body) String() (string, error) {
	buf, err := b.Bytes()
	return string(buf), err
}

// BytesWithTrailer reads the body to completion, then attempts to receive
// its trailers (non-blocking beyond what the decoder has already produced
// by the time the body is drained: for a body with no trailer producer,
// this returns (payload, nil, nil)).
func (b *Body) BytesWithTrailer(ctx context.Context) ([]byte, *Trailers, error) {
	payload, err := b.Bytes()
	if err != nil {
		return nil, nil, err
	}
	tr, terr := b.RecvTrailers(ctx)
	if terr != nil {
		if errors.Is(terr, ErrTrailersUnavailable) {
			return payload, nil, nil
		}
		return payload, nil, terr
	}
	return payload, &tr, nil
}

// StringWithTrailer is the string-returning variant of BytesWithTrailer.
func (b *Body) StringWithTrailer(ctx context.Context) (string, *Trailers, error) {
	buf, tr, err := b.BytesWithTrailer(ctx)
	return string(buf), tr, err
}
