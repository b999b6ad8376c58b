package tophat

import (
	"context"
	"sync/atomic"
)

// trailerChannel is the single-slot, single-producer/single-consumer channel
// through which a chunked decoder delivers Trailers to the Body that owns it.
// The sender half can be taken at most once; the channel's own close-on-send
// semantics guarantee the receiver observes at most one message (a second
// receive on a closed channel returns the zero value immediately, never
// blocking).
type trailerChannel struct {
	ch          chan Trailers
	senderTaken atomic.Bool
}

func newTrailerChannel() *trailerChannel {
	return &trailerChannel{ch: make(chan Trailers, 1)}
}

// closedTrailerChannel returns a channel that is already closed, for bodies
// with no trailer source (fixed-buffer bodies).
func closedTrailerChannel() *trailerChannel {
	t := newTrailerChannel()
	t.senderTaken.Store(true)
	close(t.ch)
	return t
}

// takeSender returns a send function usable exactly once; ok is false if the
// sender side has already been taken.
func (t *trailerChannel) takeSender() (send func(Trailers), ok bool) {
	if !t.senderTaken.CompareAndSwap(false, true) {
		return nil, false
	}
	return func(tr Trailers) {
		t.ch <- tr
		close(t.ch)
	}, true
}

// recv blocks for the single trailer message or for ctx cancellation. Once
// the channel has delivered (or been closed without delivering), subsequent
// calls return immediately with ok=false.
func (t *trailerChannel) recv(ctx context.Context) (tr Trailers, ok bool, err error) {
	select {
	case tr, ok = <-t.ch:
		return tr, ok, nil
	case <-ctx.Done():
		return Trailers{}, false, ctx.Err()
	}
}
