// Package sse formats Server-Sent Events frames onto an io.Pipe so a
// producer goroutine can push events while a ResponseWriter streams them
// out as they arrive, grounded on the original's reply::sse and
// response_writer::set_sse (which adapt a stream into the chunked response
// body). Go has no stream combinator to adapt, so an io.Pipe stands in for
// the original's "async read side of a stream".
package sse

import (
	"fmt"
	"io"
	"strings"
)

// Event is one Server-Sent Events message.
type Event struct {
	ID    string
	Event string
	Data  string
	Retry string
}

// Encode writes e in the "field: value\n" ... "\n" wire format.
func (e Event) Encode(w io.Writer) error {
	var b strings.Builder
	if e.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", e.ID)
	}
	if e.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Event)
	}
	if e.Retry != "" {
		fmt.Fprintf(&b, "retry: %s\n", e.Retry)
	}
	for _, line := range strings.Split(e.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// Stream is the read side of an event pipe, suitable for
// (*tophat.ResponseWriter).SetSSE.
type Stream struct {
	r *io.PipeReader
}

// Reader returns the io.Reader to pass to ResponseWriter.SetSSE.
func (s *Stream) Reader() io.Reader { return s.r }

// Sink is the write side of an event pipe: call Send from a producer
// goroutine for each event, then Close when done.
type Sink struct {
	w *io.PipeWriter
}

// Send encodes and writes ev, blocking until the reader consumes it or the
// stream is closed.
func (s *Sink) Send(ev Event) error {
	return ev.Encode(s.w)
}

// Close terminates the stream, unblocking any pending Send with io.ErrClosedPipe
// and causing the reader side to observe io.EOF.
func (s *Sink) Close() error { return s.w.Close() }

// CloseWithError terminates the stream with err, which the reader side's
// next Read will surface.
func (s *Sink) CloseWithError(err error) error { return s.w.CloseWithError(err) }

// New returns a connected Sink/Stream pair: events sent to Sink appear in
// order on Stream's Reader.
func New() (*Sink, *Stream) {
	pr, pw := io.Pipe()
	return &Sink{w: pw}, &Stream{r: pr}
}
