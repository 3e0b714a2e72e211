package auth

import (
	"encoding/json"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
	"github.com/dmitrymomot/storekit/pkg/credstore"
)

// ExtractAccessToken pulls the bearer token out of an auth endpoint
// response. The backend has shipped several envelope shapes over time,
// so every known location is probed; an empty string means none held
// a token.
func ExtractAccessToken(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	raw = apiclient.UnwrapData(raw)

	var probe struct {
		AccessToken      string `json:"accessToken"`
		Token            string `json:"token"`
		AccessTokenSnake string `json:"access_token"`
		Tokens           struct {
			AccessToken string `json:"accessToken"`
			Access      string `json:"access"`
		} `json:"tokens"`
		Auth struct {
			AccessToken string `json:"accessToken"`
		} `json:"auth"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}

	for _, token := range []string{
		probe.AccessToken,
		probe.Token,
		probe.AccessTokenSnake,
		probe.Tokens.AccessToken,
		probe.Tokens.Access,
		probe.Auth.AccessToken,
	} {
		if token != "" {
			return token
		}
	}
	return ""
}

// ExtractUser pulls the user profile out of an auth endpoint response,
// accepting the nested "user"/"profile" envelopes as well as a bare
// profile object. Returns nil when no usable profile is present.
func ExtractUser(raw json.RawMessage) *credstore.User {
	if len(raw) == 0 {
		return nil
	}
	raw = apiclient.UnwrapData(raw)

	var probe struct {
		User    *credstore.User `json:"user"`
		Profile *credstore.User `json:"profile"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil {
		if probe.User != nil {
			return probe.User
		}
		if probe.Profile != nil {
			return probe.Profile
		}
	}

	var user credstore.User
	if err := json.Unmarshal(raw, &user); err == nil && user.ID != "" {
		return &user
	}
	return nil
}
