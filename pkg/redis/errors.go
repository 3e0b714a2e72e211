package redis

import "errors"

var (
	// ErrInvalidURL wraps connection string parse failures.
	ErrInvalidURL = errors.New("redis: invalid connection URL")

	// ErrNotReady is returned when the server does not answer a ping
	// within the configured attempts.
	ErrNotReady = errors.New("redis: server not ready")
)
