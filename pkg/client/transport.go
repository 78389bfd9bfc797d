package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/syurodev/ztkapp-sub000/pkg/log"
)

// ErrBackendUnavailable replaces raw network errors once the automatic
// restart budget is exhausted.
var ErrBackendUnavailable = errors.New("Backend service is not available")

// Restarter is the supervisor-side hook the transport uses to self-heal.
// HandleNetworkFailure attempts one automatic backend restart within the
// session budget and reports whether the original request should be
// retried. NoteSuccess feeds the budget's cooldown reset.
type Restarter interface {
	HandleNetworkFailure(req *http.Request) bool
	NoteSuccess()
}

// RetryTransport recovers network-class failures by restarting the backend
// and retrying the original request exactly once. Health-check probes are
// exempt: the supervisor owns their retry policy, and a failing probe
// triggering a restart here would double-count the budget.
type RetryTransport struct {
	Base      http.RoundTripper
	Restarter Restarter
}

// NewRetryTransport wraps base with auto-restart-and-retry
func NewRetryTransport(base http.RoundTripper, restarter Restarter) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryTransport{Base: base, Restarter: restarter}
}

// RoundTrip implements http.RoundTripper
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.Base.RoundTrip(req)
	if err == nil {
		t.Restarter.NoteSuccess()
		return resp, nil
	}

	if isHealthProbe(req) || !isRetryable(req) {
		return nil, err
	}

	// A canceled or expired request is the caller's doing, not a backend
	// outage; restarting on it would burn the budget for nothing.
	if req.Context().Err() != nil ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	logger := log.WithComponent("transport")
	logger.Warn().
		Err(err).
		Str("url", req.URL.String()).
		Msg("network failure, attempting backend restart")

	if !t.Restarter.HandleNetworkFailure(req) {
		// Budget exhausted: user-facing message, original cause preserved.
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	retry, rerr := rewind(req)
	if rerr != nil {
		return nil, err
	}

	resp, err = t.Base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}

	t.Restarter.NoteSuccess()
	return resp, nil
}

// isHealthProbe reports whether the request targets the status endpoint
func isHealthProbe(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, "/service/status")
}

// isRetryable reports whether the request body can be replayed
func isRetryable(req *http.Request) bool {
	return req.Body == nil || req.GetBody != nil
}

// rewind produces a fresh copy of the request for the single retry
func rewind(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}
