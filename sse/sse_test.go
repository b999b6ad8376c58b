package sse

import (
	"bufio"
	"io"
	"strings"
	"testing"
)

func TestEventEncode(t *testing.T) {
	var b strings.Builder
	ev := Event{ID: "1", Event: "update", Data: "line one\nline two"}
	if err := ev.Encode(&b); err != nil {
		t.Fatal(err)
	}
	want := "id: 1\nevent: update\ndata: line one\ndata: line two\n\n"
	if b.String() != want {
		t.Fatalf("got %q, want %q", b.String(), want)
	}
}

func TestStreamDeliversEventsInOrder(t *testing.T) {
	sink, stream := New()

	go func() {
		_ = sink.Send(Event{Data: "first"})
		_ = sink.Send(Event{Data: "second"})
		_ = sink.Close()
	}()

	r := bufio.NewReader(stream.Reader())
	var lines []string
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\n"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	joined := strings.Join(lines, "|")
	if !strings.Contains(joined, "data: first") || !strings.Contains(joined, "data: second") {
		t.Fatalf("unexpected stream contents: %q", joined)
	}
}

func TestSinkCloseWithErrorPropagates(t *testing.T) {
	sink, stream := New()
	boom := io.ErrUnexpectedEOF
	go func() {
		_ = sink.CloseWithError(boom)
	}()

	buf := make([]byte, 16)
	_, err := stream.Reader().Read(buf)
	if err != boom {
		t.Fatalf("got %v, want %v", err, boom)
	}
}
