package tophat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// countingWriter tracks the number of bytes successfully written, so the
// encoder can report bytesWritten on both success and failure.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// encodeResponse serializes resp to w: status line, framing headers (the
// encoder's exclusive province — any user-set Content-Length or
// Transfer-Encoding is discarded), a synthesized Date unless already
// present, then user headers in insertion order, a blank line, and finally
// the body (fixed-length copy or chunked framing, chosen by whether the
// body's length is known).
func encodeResponse(ctx context.Context, w io.Writer, resp *Response) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	proto := resp.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	reason := reasonPhrase(resp.StatusCode)
	if reason == "" {
		reason = strconv.Itoa(resp.StatusCode)
	}

	if _, err := fmt.Fprintf(bw, "%s %d %s\r\n", proto, resp.StatusCode, reason); err != nil {
		return cw.n, err
	}

	length, known := resp.Body.Length()
	if known {
		if _, err := fmt.Fprintf(bw, "content-length: %d\r\n", length); err != nil {
			return cw.n, err
		}
	} else {
		if _, err := io.WriteString(bw, "transfer-encoding: chunked\r\n"); err != nil {
			return cw.n, err
		}
	}

	if !resp.Header.Has("Date") {
		if _, err := fmt.Fprintf(bw, "Date: %s\r\n", time.Now().UTC().Format(http.TimeFormat)); err != nil {
			return cw.n, err
		}
	}

	var werr error
	resp.Header.Range(func(key string, values []string) bool {
		if key == "Content-Length" || key == "Transfer-Encoding" {
			return true
		}
		for _, v := range values {
			if _, err := io.WriteString(bw, key+": "+v+"\r\n"); err != nil {
				werr = err
				return false
			}
		}
		return true
	})
	if werr != nil {
		return cw.n, werr
	}

	if _, err := io.WriteString(bw, "\r\n"); err != nil {
		return cw.n, err
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}

	if known {
		if length == 0 {
			return cw.n, nil
		}
		copied, err := io.CopyN(bw, resp.Body, length)
		if err != nil {
			return cw.n + copied, fmt.Errorf("tophat: short body write: %w", err)
		}
		return cw.n, bw.Flush()
	}

	chw := newChunkedWriter(bw)
	if _, err := io.Copy(chw, resp.Body); err != nil {
		_ = chw.Close()
		_ = bw.Flush()
		return cw.n, err
	}
	if err := chw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, bw.Flush()
}
