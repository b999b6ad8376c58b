package tophat

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func echoEndpoint(ctx context.Context, rw *ResponseWriter, req *Request) (ResponseWritten, *Glitch) {
	body, err := req.Body.Bytes()
	if err != nil {
		return ResponseWritten{}, GlitchFromErr(err).WithStatus(500)
	}
	w, _ := rw.SetText("Hello " + string(body)).Send(ctx)
	return w, nil
}

func emptyOKEndpoint(ctx context.Context, rw *ResponseWriter, req *Request) (ResponseWritten, *Glitch) {
	w, _ := rw.Send(ctx)
	return w, nil
}

// readChunk performs a single Read with a bounded deadline, for tests where
// the bytes are known to arrive as one underlying Write (the interim 100
// Continue line, or a response with no body: encodeResponse flushes a
// response's head and body as separate Writes).
func readChunk(t *testing.T, conn net.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	return string(buf[:n])
}

// readUntil accumulates reads until acc contains want or the deadline
// elapses, tolerating a response head and body arriving as separate
// underlying Writes (one bufio.Writer.Flush each).
func readUntil(t *testing.T, conn net.Conn, want string) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var acc strings.Builder
	buf := make([]byte, 4096)
	for !strings.Contains(acc.String(), want) {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("readUntil %q: %v (got so far %q)", want, err, acc.String())
		}
		acc.Write(buf[:n])
	}
	return acc.String()
}

func TestAcceptKeepAliveTwoRequests(t *testing.T) {
	server, client := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- AcceptWithOpts(server, Opts{Timeout: time.Second}, emptyOKEndpoint)
	}()

	go func() {
		_, _ = client.Write([]byte("GET /a HTTP/1.1\r\nHost: x\r\n\r\n"))
	}()
	resp1 := readUntil(t, client, "\r\n\r\n")
	if !strings.HasPrefix(resp1, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("unexpected first response: %q", resp1)
	}

	go func() {
		_, _ = client.Write([]byte("GET /b HTTP/1.1\r\nHost: x\r\n\r\n"))
	}()
	resp2 := readUntil(t, client, "\r\n\r\n")
	if !strings.HasPrefix(resp2, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("unexpected second response: %q", resp2)
	}

	client.Close()
	if err := <-done; err != nil {
		t.Fatalf("expected clean driver exit, got %v", err)
	}
}

func TestAcceptIdleTimeout(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	done := make(chan error, 1)
	go func() {
		done <- AcceptWithOpts(server, Opts{Timeout: 30 * time.Millisecond}, emptyOKEndpoint)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on idle timeout, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not exit after idle timeout")
	}
}

func TestAcceptExpectContinue(t *testing.T) {
	server, client := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- AcceptWithOpts(server, Opts{Timeout: time.Second}, echoEndpoint)
	}()

	go func() {
		_, _ = client.Write([]byte("POST /x HTTP/1.1\r\nHost: h\r\nContent-Length: 6\r\nExpect: 100-continue\r\n\r\ntophat"))
	}()

	continueLine := readChunk(t, client)
	if continueLine != "HTTP/1.1 100 Continue\r\n\r\n" {
		t.Fatalf("expected 100-continue first, got %q", continueLine)
	}

	readUntil(t, client, "Hello tophat")

	client.Close()
	<-done
}

func TestAcceptStatusMappingNoHost(t *testing.T) {
	server, client := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- AcceptWithOpts(server, Opts{Timeout: time.Second}, emptyOKEndpoint)
	}()

	go func() {
		_, _ = client.Write([]byte("GET /foo/bar HTTP/1.1\r\n\r\n"))
	}()
	resp := readUntil(t, client, "\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 400 Bad Request\r\n") {
		t.Fatalf("got %q", resp)
	}

	client.Close()
	<-done
}

func TestAcceptUnsupportedTransferEncodingFatal(t *testing.T) {
	server, client := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- AcceptWithOpts(server, Opts{Timeout: time.Second}, emptyOKEndpoint)
	}()

	go func() {
		_, _ = client.Write([]byte("GET /foo/bar HTTP/1.1\r\nHost: example.org\r\nTransfer-Encoding: gzip\r\n\r\n"))
	}()
	resp := readUntil(t, client, "\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 501 Not Implemented\r\n") {
		t.Fatalf("got %q", resp)
	}

	client.Close()
	err := <-done
	if err == nil {
		t.Fatal("expected a fatal DriverError")
	}
	if de, ok := err.(*DriverError); !ok || de.Kind != DriverErrUnsupportedTransferEncoding {
		t.Fatalf("got %v (%T)", err, de)
	}
}
