package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TokenProvider supplies the current bearer token, or "" when the
// session is anonymous. It is read once per request so token rotation
// is picked up without rebuilding the client.
type TokenProvider interface {
	Token() string
}

// Refresher obtains a fresh access token when the current one is
// rejected, and tears the session down when the credential is
// confirmed invalid. Implemented by the session manager.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// Client issues authenticated REST calls against the storefront
// backend. A single instance is shared by all services so there is
// exactly one refresh pipeline per process.
//
// Recovery is limited to one failure class: an expired access token.
// The first 401 on a request triggers a silent refresh and a single
// resend; every other failure propagates to the caller untouched.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	log     *slog.Logger

	mu        sync.RWMutex
	refresher Refresher
}

// New creates a client for the given backend origin. The underlying
// http.Client carries a cookie jar so the httponly refresh cookie set
// by the backend rides along on /auth/refresh calls.
func New(baseURL string, opts ...Option) *Client {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{
			Timeout: cfg.timeout,
			Jar:     jar,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  cfg.tokens,
		log:     cfg.log,
	}
}

// BindRefresher attaches the session manager after construction. The
// client and the manager reference each other at runtime, so one side
// has to be bound late.
func (c *Client) BindRefresher(r Refresher) {
	c.mu.Lock()
	c.refresher = r
	c.mu.Unlock()
}

func (c *Client) currentRefresher() Refresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

// Call performs an HTTP request with a JSON body (body may be nil) and
// decodes a 2xx response into out (out may be nil).
func (c *Client) Call(ctx context.Context, method, path string, body, out any, opts ...CallOption) error {
	var payload []byte
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: marshal request body: %w", err)
		}
		payload = raw
		contentType = "application/json"
	}
	return c.call(ctx, method, path, payload, contentType, out, opts...)
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Call(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	return c.Call(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	return c.Call(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	return c.Call(ctx, http.MethodPatch, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Call(ctx, http.MethodDelete, path, nil, out, opts...)
}

func (c *Client) call(ctx context.Context, method, path string, payload []byte, contentType string, out any, opts ...CallOption) error {
	options := &callOptions{}
	for _, opt := range opts {
		opt(options)
	}

	status, body, err := c.attempt(ctx, method, path, payload, contentType, options, "")
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !options.noRetry {
		if refresher := c.currentRefresher(); refresher != nil {
			return c.retryAfterRefresh(ctx, refresher, method, path, payload, contentType, options, out)
		}
	}

	return finish(status, body, out)
}

// retryAfterRefresh resends the original request exactly once with a
// freshly minted token. A second 401, or a refresh failure, confirms
// the credential is invalid: the session is torn down and the error
// propagates.
func (c *Client) retryAfterRefresh(ctx context.Context, refresher Refresher, method, path string, payload []byte, contentType string, options *callOptions, out any) error {
	token, err := refresher.Refresh(ctx)
	if err != nil {
		c.log.DebugContext(ctx, "token refresh failed, clearing session",
			slog.String("path", path), slog.Any("error", err))
		refresher.Invalidate(ctx)
		return errors.Join(ErrSessionExpired, err)
	}

	status, body, err := c.attempt(ctx, method, path, payload, contentType, options, token)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		refresher.Invalidate(ctx)
		return errors.Join(ErrSessionExpired, &APIError{Status: status, Body: body})
	}
	return finish(status, body, out)
}

// attempt performs a single HTTP round trip. tokenOverride, when
// non-empty, replaces the provider token (used for the post-refresh
// resend).
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, contentType string, options *callOptions, tokenOverride string) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("apiclient: build request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range options.headers {
		req.Header.Set(k, v)
	}

	token := tokenOverride
	if token == "" && c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			// Cancellation is a control signal, not a failure.
			c.log.DebugContext(ctx, "request canceled", slog.String("path", path))
			return 0, nil, ctx.Err()
		case isTimeout(err):
			return 0, nil, errors.Join(ErrTimeout, err)
		default:
			return 0, nil, errors.Join(ErrRequestFailed, err)
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// 1MB cap keeps a misbehaving backend from exhausting memory.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, errors.Join(ErrRequestFailed, err)
	}

	return resp.StatusCode, body, nil
}

func finish(status int, body []byte, out any) error {
	if status < 200 || status >= 300 {
		return &APIError{Status: status, Body: body}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

// UnwrapData strips the optional {"data": ...} envelope some backend
// endpoints wrap their payloads in. A payload without the envelope is
// returned unchanged.
func UnwrapData(raw json.RawMessage) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data
	}
	return raw
}
