package tophat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/andycostintoma/tophat/internal/netx"
	"go.uber.org/zap"
)

// Conn is the bidirectional byte stream the driver runs on. A net.Conn
// already satisfies it and additionally lets the driver bound each decode
// attempt with a real read deadline, which is how Go idiomatically races a
// blocking read against a timeout (in place of polling a cooperative future,
// as the original async core does).
type Conn = net.Conn

// Opts configures AcceptWithOpts.
type Opts struct {
	// Timeout bounds each request decode attempt. Zero disables the idle
	// timeout entirely. Default (via DefaultOpts) is 60s.
	Timeout time.Duration
	// VerboseGlitch controls whether a Glitch's trace is included in its
	// response body alongside its message.
	VerboseGlitch bool
	// Logger receives structured diagnostics for decode failures, fatal
	// termination, and failed error-response writes. A nil Logger is
	// replaced with a no-op logger.
	Logger *zap.SugaredLogger
}

// DefaultOpts returns {Timeout: 60s, VerboseGlitch: false}.
func DefaultOpts() Opts {
	return Opts{Timeout: 60 * time.Second}
}

// DriverError is a fatal protocol or transport failure surfaced to Accept's
// caller, terminating the connection.
type DriverError struct {
	Kind string
	Err  error
}

func (e *DriverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tophat: %s: %v", e.Kind, e.Err)
	}
	return "tophat: " + e.Kind
}

func (e *DriverError) Unwrap() error { return e.Err }

// DriverError kinds.
const (
	DriverErrUnsupportedTransferEncoding = "connection-closed-unsupported-transfer-encoding"
	DriverErrConnectionLost              = "connection-lost"
)

// Accept runs the keep-alive request/response loop on conn with
// DefaultOpts.
func Accept(conn Conn, endpoint Endpoint) error {
	return AcceptWithOpts(conn, DefaultOpts(), endpoint)
}

// AcceptWithOpts sequences requests on conn until the peer disconnects, a
// fatal protocol error occurs, or the idle timeout elapses. See §4.1.
func AcceptWithOpts(conn Conn, opts Opts, endpoint Endpoint) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := netx.NewCRLFFastReader(conn)

	for {
		req, timedOut, err := decodeNext(conn, r, opts.Timeout)
		if timedOut {
			return nil
		}
		if err != nil {
			var df *decodeFail
			if errors.As(err, &df) {
				logger.Debugw("tophat: decode failure", "kind", df.kind, "error", df)
				status, fatal := decodeFailStatus(df.kind)
				if _, werr := encodeResponse(context.Background(), conn, bareResponse(status)); werr != nil {
					logger.Debugw("tophat: failed writing error response", "error", werr)
				}
				if fatal {
					logger.Errorw("tophat: fatal decode failure, closing connection", "error", df)
					return &DriverError{Kind: DriverErrUnsupportedTransferEncoding, Err: df}
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			logger.Errorw("tophat: connection lost", "error", err)
			return &DriverError{Kind: DriverErrConnectionLost, Err: err}
		}
		if req == nil {
			return nil
		}

		if hasExpectContinue(req) {
			if _, werr := io.WriteString(conn, "HTTP/1.1 100 Continue\r\n\r\n"); werr != nil {
				return &DriverError{Kind: DriverErrConnectionLost, Err: werr}
			}
		}

		rw := newResponseWriter(conn)
		_, glitch := endpoint(req.Context(), rw, req)
		if glitch != nil {
			if _, werr := encodeResponse(req.Context(), conn, glitch.IntoResponse(opts.VerboseGlitch)); werr != nil {
				logger.Debugw("tophat: failed writing glitch response", "error", werr)
			}
			continue
		}
		if !rw.Written() {
			logger.Errorw("tophat: endpoint returned success without sending a response")
			if _, werr := encodeResponse(req.Context(), conn, bareResponse(http.StatusInternalServerError)); werr != nil {
				logger.Debugw("tophat: failed writing fallback response", "error", werr)
			}
		}
	}
}

// decodeNext bounds one decode attempt by timeout using a real read
// deadline on conn, then parses. timedOut is true when the deadline elapsed
// before a complete request head arrived.
func decodeNext(conn Conn, r *netx.CRLFFastReader, timeout time.Duration) (req *Request, timedOut bool, err error) {
	if timeout > 0 {
		if derr := conn.SetReadDeadline(time.Now().Add(timeout)); derr != nil {
			return nil, false, derr
		}
		defer conn.SetReadDeadline(time.Time{})
	}

	req, err = decodeRequest(context.Background(), r)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, true, nil
		}
	}
	return req, false, err
}

// bareResponse builds the minimal response decode failures and the
// endpoint-forgot-to-send fallback share: empty body, no user headers.
func bareResponse(status int) *Response {
	resp := NewResponse()
	resp.StatusCode = status
	resp.Body = EmptyBody()
	return resp
}

// decodeFailStatus maps a decode-failure kind to its response status and
// whether it must also terminate the connection (§4.1, §7).
func decodeFailStatus(kind string) (status int, fatal bool) {
	switch kind {
	case failHTTP10NotSupported:
		return http.StatusHTTPVersionNotSupported, false
	case failUnsupportedTransferEnc:
		return http.StatusNotImplemented, true
	default:
		return http.StatusBadRequest, false
	}
}
