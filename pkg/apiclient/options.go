package apiclient

import (
	"log/slog"
	"net/http"
	"time"
)

type clientOptions struct {
	timeout    time.Duration
	httpClient *http.Client
	tokens     TokenProvider
	log        *slog.Logger
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		timeout: 10 * time.Second,
		log:     slog.Default(),
	}
}

// Option configures the client at construction time.
type Option func(*clientOptions)

// WithTimeout overrides the per-request timeout. Non-positive values
// are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient replaces the default http.Client, e.g. for custom
// transports or tests. The caller then owns timeout and cookie jar
// configuration.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithTokenProvider sets the bearer token source. Without one, all
// requests go out unauthenticated.
func WithTokenProvider(tp TokenProvider) Option {
	return func(o *clientOptions) { o.tokens = tp }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *clientOptions) {
		if log != nil {
			o.log = log
		}
	}
}

type callOptions struct {
	noRetry bool
	headers map[string]string
}

// CallOption configures a single request.
type CallOption func(*callOptions)

// WithoutRetry disables the 401 refresh-and-resend for this call.
// Used by the session manager for the auth endpoints themselves, where
// a 401 is an answer rather than an expired-token symptom.
func WithoutRetry() CallOption {
	return func(o *callOptions) { o.noRetry = true }
}

// WithHeader adds a request header to this call.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}
