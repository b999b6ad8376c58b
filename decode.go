package tophat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andycostintoma/tophat/internal/netx"
)

// decodeFail is the internal decode-failure taxonomy (§7): each value maps
// to an HTTP status (and, for one case, a fatal connection termination) in
// decodeFailStatus.
type decodeFail struct {
	kind string
	err  error
}

func (d *decodeFail) Error() string {
	if d.err != nil {
		return fmt.Sprintf("tophat: %s: %v", d.kind, d.err)
	}
	return "tophat: " + d.kind
}

func (d *decodeFail) Unwrap() error { return d.err }

func newDecodeFail(kind string, err error) *decodeFail {
	return &decodeFail{kind: kind, err: err}
}

// Decode-failure kinds, named after the original taxonomy (§7).
const (
	failMalformedHead             = "malformed-head"
	failUnsupportedTransferEnc    = "unsupported-transfer-encoding" // fatal
	failNoPath                    = "no-path"
	failNoMethod                  = "no-method"
	failNoVersion                 = "no-version"
	failNoHost                    = "no-host"
	failInvalidContentLength      = "invalid-content-length"
	failAmbiguousFraming          = "ambiguous-framing"
	failRequestBuild              = "request-build"
	failHTTP10NotSupported        = "http10-not-supported"
	failConnectionLost            = "connection-lost"
)

// isFatal reports whether a decode failure of this kind must terminate the
// connection rather than simply produce a response and continue.
func isFatal(kind string) bool {
	return kind == failUnsupportedTransferEnc || kind == failConnectionLost
}

// maxLineBytes and maxHeaderBytes bound request-line and header-section sizes; spec.md
// leaves exact limits unspecified, so these follow the teacher's existing
// defaults (internal/netx.DefaultBufSize-scale line caps).
const (
	maxLineBytes   = 8 * 1024
	maxHeaderBytes = 64 * 1024
)

// decodeRequest reads one request off r. It returns (nil, nil) on a
// clean EOF before any bytes of a new request (the driver treats that as
// "no more requests"); a non-nil *decodeFail on a protocol violation; or a
// plain error (the underlying read error) on a fatal transport failure.
func decodeRequest(ctx context.Context, r *netx.CRLFFastReader) (*Request, error) {
	head, err := readHead(r)
	if err != nil {
		if errors.Is(err, io.EOF) && head == nil {
			return nil, nil
		}
		if !errors.Is(err, io.EOF) && !errors.Is(err, netx.ErrLineTooLong) &&
			!errors.Is(err, errHeadTooLarge) && !errors.Is(err, errEmptyHead) {
			return nil, err
		}
		return nil, newDecodeFail(failMalformedHead, err)
	}

	reqLine, rest := head[0], head[1:]
	method, target, proto, err := parseRequestLine(reqLine)
	if err != nil {
		return nil, newDecodeFail(failMalformedHead, err)
	}
	if method == "" {
		return nil, newDecodeFail(failNoMethod, nil)
	}
	if target == "" {
		return nil, newDecodeFail(failNoPath, nil)
	}
	if proto == "" {
		return nil, newDecodeFail(failNoVersion, nil)
	}

	major, minor, err := parseHTTPVersion(proto)
	if err != nil {
		return nil, newDecodeFail(failMalformedHead, err)
	}
	if major != 1 || minor != 1 {
		return nil, newDecodeFail(failHTTP10NotSupported, nil)
	}

	hdr, err := parseHeaderLines(rest)
	if err != nil {
		return nil, newDecodeFail(failMalformedHead, err)
	}

	u, err := ParseRequestTarget(target)
	if err != nil {
		return nil, newDecodeFail(failRequestBuild, err)
	}

	host := hdr.Get("Host")
	if host == "" {
		return nil, newDecodeFail(failNoHost, nil)
	}

	te := strings.TrimSpace(hdr.Get("Transfer-Encoding"))
	cl := hdr.Get("Content-Length")
	if te != "" && cl != "" {
		// RFC 7230 §3.3.3: simultaneous Content-Length and
		// Transfer-Encoding is ambiguous framing, rejected as bad request.
		return nil, newDecodeFail(failAmbiguousFraming, nil)
	}

	req := &Request{
		Method:     method,
		Target:     target,
		URL:        u,
		Proto:      proto,
		ProtoMajor: major,
		ProtoMinor: minor,
		Header:     hdr,
		Host:       host,
		ctx:        ctx,
	}

	if te != "" {
		if !strings.EqualFold(te, "chunked") && !strings.EqualFold(te, "identity") {
			return nil, newDecodeFail(failUnsupportedTransferEnc, fmt.Errorf("unsupported transfer-coding %q", te))
		}
		if strings.EqualFold(te, "chunked") {
			req.ContentLength = -1
			req.Body = newChunkedBody(r.Reader())
			return req, nil
		}
		// identity: fall through to content-length handling below (defaults
		// to 0 if absent, same as having no Transfer-Encoding at all).
	}

	n := int64(0)
	if cl != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if err != nil || parsed < 0 {
			return nil, newDecodeFail(failInvalidContentLength, err)
		}
		n = parsed
	}
	req.ContentLength = n
	req.Body = NewBodyWithLength(io.LimitReader(r.Reader(), n), n)
	return req, nil
}

// readHead reads lines into a slice until a blank line terminator. It
// returns (nil, io.EOF) if zero bytes are read on the first attempt (clean
// EOF, no request at all).
func readHead(r *netx.CRLFFastReader) ([]string, error) {
	var lines []string
	first := true
	for {
		line, _, err := r.ReadLine(maxLineBytes)
		if err != nil {
			if errors.Is(err, io.EOF) && first && len(line) == 0 {
				return nil, io.EOF
			}
			if len(line) == 0 {
				return lines, err
			}
		}
		if len(line) == 0 {
			break
		}
		lines = append(lines, string(line))
		first = false
		if headBytes(lines) > maxHeaderBytes {
			return nil, errHeadTooLarge
		}
	}
	if len(lines) == 0 {
		return nil, errEmptyHead
	}
	return lines, nil
}

var (
	errHeadTooLarge = errors.New("head too large")
	errEmptyHead    = errors.New("empty head")
)

func headBytes(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(l) + 2
	}
	return n
}

// parseRequestLine parses "METHOD SP request-target SP HTTP/x.y", tolerant
// of method/version being absent so the caller can distinguish which field
// was missing (for the no-method/no-path/no-version failure kinds).
func parseRequestLine(line string) (method, target, proto string, err error) {
	parts := strings.Fields(line)
	switch len(parts) {
	case 0:
		return "", "", "", nil
	case 1:
		return parts[0], "", "", nil
	case 2:
		return parts[0], parts[1], "", nil
	case 3:
		return parts[0], parts[1], parts[2], nil
	default:
		return "", "", "", fmt.Errorf("malformed request line: %q", line)
	}
}

func parseHTTPVersion(proto string) (major, minor int, err error) {
	if !strings.HasPrefix(proto, "HTTP/") {
		return 0, 0, fmt.Errorf("invalid protocol: %q", proto)
	}
	ver := strings.TrimPrefix(proto, "HTTP/")
	dot := strings.IndexByte(ver, '.')
	if dot < 0 {
		return 0, 0, fmt.Errorf("invalid HTTP version: %q", proto)
	}
	maj, err1 := strconv.Atoi(ver[:dot])
	min, err2 := strconv.Atoi(ver[dot+1:])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("invalid HTTP version numbers: %q", proto)
	}
	return maj, min, nil
}

// parseHeaderLines parses "Name: Value" lines (folding is not supported,
// per RFC 7230 §3.2.4 deprecating obs-fold).
func parseHeaderLines(lines []string) (Header, error) {
	h := NewHeader()
	for _, line := range lines {
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return h, fmt.Errorf("malformed header line: %q", line)
		}
		key := line[:i]
		val := strings.TrimSpace(line[i+1:])
		h.Add(key, val)
	}
	return h, nil
}

// hasExpectContinue reports whether req carries Expect: 100-continue
// (case-insensitive). Any other Expect value is noted but ignored by the
// driver, per §4.1 step 3.
func hasExpectContinue(req *Request) bool {
	return strings.EqualFold(strings.TrimSpace(req.Header.Get("Expect")), "100-continue")
}
