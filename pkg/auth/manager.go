package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
	"github.com/dmitrymomot/storekit/pkg/credstore"
)

// State is the session lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Manager owns the authentication lifecycle: bootstrap at startup,
// silent refresh, login and logout. It implements
// apiclient.TokenProvider and apiclient.Refresher, so the HTTP adapter
// consults it for bearer tokens and expired-token recovery.
//
// The access token is only ever written here (through the credential
// store); other components read it per request. Refresh is
// single-flight: a burst of concurrent callers issues one network
// call and shares its outcome.
type Manager struct {
	store  credstore.Store
	client *apiclient.Client
	log    *slog.Logger

	sf singleflight.Group

	mu      sync.RWMutex
	state   State
	user    *credstore.User
	loading bool
}

// Option configures the manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// New creates a session manager over the given store and client. Any
// user profile cached from a previous run is picked up immediately;
// the session stays in the loading phase until Bootstrap settles it.
func New(store credstore.Store, client *apiclient.Client, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		client:  client,
		log:     slog.Default(),
		state:   StateUninitialized,
		loading: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.user = store.ReadUser()
	return m
}

// Token implements apiclient.TokenProvider.
func (m *Manager) Token() string { return m.store.ReadToken() }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsLoading reports whether Bootstrap has not yet settled.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// IsAuthenticated reports whether an access token is present.
func (m *Manager) IsAuthenticated() bool { return m.Token() != "" }

// IsAdmin reports whether the cached user carries the admin role.
// Role comparison is case-insensitive; an absent user or role means
// no admin capability.
func (m *Manager) IsAdmin() bool {
	u := m.CurrentUser()
	return u != nil && strings.EqualFold(u.Role, "admin")
}

// CurrentUser returns the cached profile, or nil when anonymous or
// when the profile fetch has not completed yet.
func (m *Manager) CurrentUser() *credstore.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Subscribe registers a handler invoked synchronously on every
// session change (token written or cleared). Returns an unsubscribe.
func (m *Manager) Subscribe(fn func(struct{})) func() {
	return m.store.Subscribe(fn)
}

// Bootstrap establishes the session once at startup and always
// settles: any unrecovered failure lands in StateAnonymous with local
// credentials cleared, never in a stuck loading phase.
//
// With a stored token, the profile is fetched; a 401 there gets one
// silent refresh and one profile retry. Without a token, a single
// silent refresh covers returning users whose refresh credential
// lives in the backend's httponly cookie.
func (m *Manager) Bootstrap(ctx context.Context) State {
	m.setPhase(StateLoading, true)
	defer m.setLoading(false)

	if m.store.ReadToken() == "" {
		if _, err := m.Refresh(ctx); err != nil {
			m.log.DebugContext(ctx, "silent refresh failed during bootstrap", slog.Any("error", err))
			m.clearLocal()
			return m.State()
		}
	}

	if err := m.loadProfile(ctx); err != nil {
		if !apiclient.IsUnauthorized(err) {
			m.log.DebugContext(ctx, "profile fetch failed during bootstrap", slog.Any("error", err))
			m.clearLocal()
			return m.State()
		}
		if _, err := m.Refresh(ctx); err != nil {
			m.clearLocal()
			return m.State()
		}
		if err := m.loadProfile(ctx); err != nil {
			m.clearLocal()
			return m.State()
		}
	}

	m.setState(StateAuthenticated)
	return m.State()
}

// Refresh obtains a new access token via the backend's cookie-based
// refresh endpoint and persists it. Concurrent calls are collapsed
// into one network request; every caller receives the same token or
// the same error. On failure no stored state is mutated.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	v, err, _ := m.sf.Do("refresh", func() (any, error) {
		var raw json.RawMessage
		if err := m.client.Post(ctx, "/auth/refresh", nil, &raw, apiclient.WithoutRetry()); err != nil {
			return "", err
		}
		token := ExtractAccessToken(raw)
		if token == "" {
			return "", ErrMissingAccessToken
		}
		m.store.WriteToken(token)
		m.setState(StateAuthenticated)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate implements apiclient.Refresher: the credential was
// confirmed invalid, so the local session is torn down.
func (m *Manager) Invalidate(ctx context.Context) {
	m.log.DebugContext(ctx, "session invalidated")
	m.clearLocal()
}

// Login persists the given token and user and marks the session
// authenticated. An empty token skips token persistence (and the
// state change driven by it) but the user is still cached, matching
// the token-presence invariant.
func (m *Manager) Login(token string, user *credstore.User) {
	if token != "" {
		m.store.WriteToken(token)
		m.setState(StateAuthenticated)
	}
	m.store.WriteUser(user)
	m.setUser(user)
}

// Logout invalidates the refresh credential on the backend on a
// best-effort basis, then unconditionally clears the local session.
// Local teardown must succeed regardless of network state, so the
// remote failure is swallowed.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.client.Post(ctx, "/auth/logout", nil, nil, apiclient.WithoutRetry()); err != nil {
		m.log.DebugContext(ctx, "remote logout failed", slog.Any("error", err))
	}
	m.clearLocal()
}

// Me fetches the current profile from the backend and refreshes the
// local cache. Unlike the bootstrap-internal fetch, this one goes
// through the normal 401-recovery path.
func (m *Manager) Me(ctx context.Context) (*credstore.User, error) {
	var raw json.RawMessage
	if err := m.client.Get(ctx, "/auth/me", &raw); err != nil {
		return nil, err
	}
	user := ExtractUser(raw)
	if user == nil {
		return nil, ErrMalformedProfile
	}
	m.store.WriteUser(user)
	m.setUser(user)
	return user, nil
}

// loadProfile fetches /auth/me without automatic 401 recovery;
// Bootstrap orchestrates its own single refresh-and-retry there.
func (m *Manager) loadProfile(ctx context.Context) error {
	var raw json.RawMessage
	if err := m.client.Get(ctx, "/auth/me", &raw, apiclient.WithoutRetry()); err != nil {
		return err
	}
	user := ExtractUser(raw)
	if user == nil {
		return ErrMalformedProfile
	}
	m.store.WriteUser(user)
	m.setUser(user)
	return nil
}

func (m *Manager) clearLocal() {
	m.mu.Lock()
	m.user = nil
	m.state = StateAnonymous
	m.mu.Unlock()
	m.store.ClearAll()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) setUser(u *credstore.User) {
	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *Manager) setPhase(s State, loading bool) {
	m.mu.Lock()
	m.state = s
	m.loading = loading
	m.mu.Unlock()
}
