// Package client is a minimal HTTP/1.1 request/response round trip over an
// already-connected net.Conn, grounded on the original's src/client/{mod,
// encode,decode,error}.rs. It is the client-side mirror of the server
// decode/encode pair in the root package, reusing the same Request,
// Response, Header and Body types.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/andycostintoma/tophat"
	"github.com/andycostintoma/tophat/internal/netx"
)

// Error is a client-side encode or decode failure, named after the
// original's ClientError (an enum over Encode/Decode/Io variants there;
// here a single type with a kind string plays the same role).
type Error struct {
	Kind string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client: %s: %v", e.Kind, e.Err)
	}
	return "client: " + e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

func encodeErr(err error) *Error { return &Error{Kind: "encode", Err: err} }
func decodeErr(err error) *Error { return &Error{Kind: "decode", Err: err} }

const maxHeadBytes = 8 * 1024

// Do sends req over conn and reads back a Response. Like the original,
// chunked request bodies are not supported: req.Body must report a known
// Length.
func Do(conn net.Conn, req *tophat.Request) (*tophat.Response, error) {
	if err := encodeRequest(conn, req); err != nil {
		return nil, err
	}
	return decodeResponse(conn)
}

// encodeRequest writes the request line, headers and body to w.
func encodeRequest(w io.Writer, req *tophat.Request) error {
	var head strings.Builder

	target := req.Target
	if target == "" && req.URL != nil {
		target = req.URL.String()
	}
	fmt.Fprintf(&head, "%s %s HTTP/1.1\r\n", req.Method, target)

	if req.Header.Get("Host") == "" {
		if req.Host == "" {
			return encodeErr(errors.New("missing hostname"))
		}
		fmt.Fprintf(&head, "Host: %s\r\n", req.Host)
	}

	length, known := req.Body.Length()
	if !known {
		// Chunked request encoding is not implemented, matching the
		// original's encode.rs, which panics on an unknown-length body.
		return encodeErr(errors.New("chunked request encoding not supported"))
	}
	fmt.Fprintf(&head, "Content-Length: %d\r\n", length)

	req.Header.Range(func(key string, values []string) bool {
		if strings.EqualFold(key, "Content-Length") {
			return true
		}
		for _, v := range values {
			fmt.Fprintf(&head, "%s: %s\r\n", key, v)
		}
		return true
	})
	head.WriteString("\r\n")

	if _, err := io.WriteString(w, head.String()); err != nil {
		return encodeErr(err)
	}
	if _, err := io.Copy(w, req.Body); err != nil {
		return encodeErr(err)
	}
	return nil
}

// decodeResponse reads a status line, headers and body off conn.
func decodeResponse(conn net.Conn) (*tophat.Response, error) {
	r := netx.NewCRLFFastReader(conn)

	var lines []string
	for {
		line, _, err := r.ReadLine(maxHeadBytes)
		if err != nil && len(line) == 0 {
			if errors.Is(err, io.EOF) {
				return nil, decodeErr(errors.New("empty response"))
			}
			return nil, decodeErr(err)
		}
		if len(line) == 0 {
			break
		}
		lines = append(lines, string(line))
	}
	if len(lines) == 0 {
		return nil, decodeErr(errors.New("empty response"))
	}

	statusLine, headerLines := lines[0], lines[1:]
	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		return nil, decodeErr(fmt.Errorf("malformed status line: %q", statusLine))
	}
	if !strings.HasPrefix(parts[0], "HTTP/1.") {
		return nil, decodeErr(fmt.Errorf("unsupported HTTP version: %q", parts[0]))
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, decodeErr(fmt.Errorf("invalid status code: %q", parts[1]))
	}

	hdr := tophat.NewHeader()
	for _, line := range headerLines {
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, decodeErr(fmt.Errorf("malformed header line: %q", line))
		}
		hdr.Add(line[:i], strings.TrimSpace(line[i+1:]))
	}

	cl := hdr.Get("Content-Length")
	te := hdr.Get("Transfer-Encoding")
	if cl != "" && te != "" {
		return nil, decodeErr(errors.New("ambiguous framing: both Content-Length and Transfer-Encoding set"))
	}

	resp := tophat.NewResponse()
	resp.StatusCode = code
	resp.Header = hdr

	if strings.EqualFold(te, "chunked") {
		resp.Body = tophat.NewChunkedBody(bufioReaderOf(r))
		return resp, nil
	}

	n := int64(0)
	if cl != "" {
		n, err = strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return nil, decodeErr(fmt.Errorf("invalid content-length: %q", cl))
		}
	}
	resp.Body = tophat.NewBodyWithLength(io.LimitReader(bufioReaderOf(r), n), n)
	return resp, nil
}

func bufioReaderOf(r *netx.CRLFFastReader) *bufio.Reader { return r.Reader() }
