package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Upstream failure kinds. Match with errors.Is.
var (
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamHTTP      = errors.New("upstream http error")
	ErrUpstreamMalformed = errors.New("upstream malformed data")
)

// UpstreamError wraps a failed exchange call with the endpoint and symbol involved.
type UpstreamError struct {
	Kind     error // one of the ErrUpstream* sentinels
	Endpoint string
	Symbol   string
	Status   int // HTTP status for ErrUpstreamHTTP, 0 otherwise
	Err      error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%v: endpoint=%s", e.Kind, e.Endpoint)
	if e.Symbol != "" {
		msg += " symbol=" + e.Symbol
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is this error's kind sentinel.
func (e *UpstreamError) Is(target error) bool {
	return target == e.Kind
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err originated from the exchange rather than from local code.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func newMalformed(endpoint, symbol string, err error) error {
	return &UpstreamError{Kind: ErrUpstreamMalformed, Endpoint: endpoint, Symbol: symbol, Err: err}
}

// classifyTransport turns an http.Client error into a timeout or generic http failure.
// A cancelled caller is not an upstream failure and keeps context.Canceled.
func classifyTransport(endpoint, symbol string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", endpoint, symbol, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &UpstreamError{Kind: ErrUpstreamTimeout, Endpoint: endpoint, Symbol: symbol, Err: err}
	}
	return &UpstreamError{Kind: ErrUpstreamHTTP, Endpoint: endpoint, Symbol: symbol, Err: err}
}

// Outcome labels err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstreamHTTP):
		return "http"
	case errors.Is(err, ErrUpstreamMalformed):
		return "malformed"
	default:
		return "error"
	}
}
