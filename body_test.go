package tophat

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBodyFromBytesLengthAndClosedTrailers(t *testing.T) {
	b := NewBodyFromBytes([]byte("hello"))
	n, known := b.Length()
	if !known || n != 5 {
		t.Fatalf("got length=%d known=%v", n, known)
	}
	if _, err := b.RecvTrailers(context.Background()); !errors.Is(err, ErrTrailersUnavailable) {
		t.Fatalf("expected ErrTrailersUnavailable, got %v", err)
	}
}

func TestBodyUnknownLength(t *testing.T) {
	b := NewBody(strings.NewReader("x"))
	if _, known := b.Length(); known {
		t.Fatal("expected unknown length")
	}
}

func TestBodyBytesWithTrailerNoProducer(t *testing.T) {
	b := NewBody(strings.NewReader("abc"))
	payload, tr, err := b.BytesWithTrailer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "abc" {
		t.Fatalf("got %q", payload)
	}
	if tr != nil {
		t.Fatal("expected no trailers when nothing delivers to the channel")
	}
}

func TestTrailerChannelSenderTakenOnce(t *testing.T) {
	tc := newTrailerChannel()
	_, ok1 := tc.takeSender()
	_, ok2 := tc.takeSender()
	if !ok1 || ok2 {
		t.Fatal("expected sender takeable exactly once")
	}
}

func TestTrailerChannelReceiveAtMostOnce(t *testing.T) {
	tc := newTrailerChannel()
	send, _ := tc.takeSender()
	want := NewHeader()
	want.Add("X", "1")
	send(want)

	tr, ok, err := tc.recv(context.Background())
	if err != nil || !ok || tr.Get("X") != "1" {
		t.Fatalf("unexpected first recv: %v %v %v", tr, ok, err)
	}
	_, ok, err = tc.recv(context.Background())
	if err != nil || ok {
		t.Fatal("expected second recv to report no message")
	}
}
