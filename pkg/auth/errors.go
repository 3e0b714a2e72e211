package auth

import "errors"

var (
	// ErrMissingAccessToken indicates an auth endpoint answered 2xx but
	// no access token could be found in any known payload location.
	ErrMissingAccessToken = errors.New("auth: response missing access token")

	// ErrMalformedProfile indicates /auth/me answered 2xx but the body
	// did not contain a usable user object.
	ErrMalformedProfile = errors.New("auth: response missing user profile")
)
