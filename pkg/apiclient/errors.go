package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRequestFailed wraps transport-level failures (DNS, connection
	// reset, malformed response). Never retried automatically.
	ErrRequestFailed = errors.New("apiclient: request failed")

	// ErrTimeout indicates the request exceeded the configured
	// deadline. Propagated, not retried.
	ErrTimeout = errors.New("apiclient: request timed out")

	// ErrSessionExpired indicates the credential was confirmed invalid:
	// either the refresh failed or the resent request was rejected
	// again. The local session has already been cleared when callers
	// see this error; the appropriate reaction is a login prompt.
	ErrSessionExpired = errors.New("apiclient: session expired")
)

// APIError is a non-2xx backend response with its body intact so
// callers can surface backend-provided messages.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	msg := strings.ReplaceAll(string(e.Body), "\n", " ")
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		return fmt.Sprintf("apiclient: backend returned status %d", e.Status)
	}
	return fmt.Sprintf("apiclient: backend returned status %d: %s", e.Status, msg)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsCanceled reports whether err stems from context cancellation, as
// opposed to a network or backend failure. Superseded speculative
// requests (search-as-you-type) end up here and must not be treated
// as errors.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
