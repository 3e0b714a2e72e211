// Package config loads the storefront client configuration from the
// environment, with .env file support for development.
//
// The configuration surface is deliberately small: the backend origin,
// the request timeout, an optional durable state path and the logging
// knobs. Everything defaults to values that work against a local
// backend.
package config
