package auth_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
	"github.com/dmitrymomot/storekit/pkg/auth"
	"github.com/dmitrymomot/storekit/pkg/credstore"
)

type storeTokens struct{ store credstore.Store }

func (s storeTokens) Token() string { return s.store.ReadToken() }

func newManager(t *testing.T, handler http.Handler) (*auth.Manager, *credstore.MemoryStore, *apiclient.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := credstore.NewMemoryStore()
	client := apiclient.New(srv.URL, apiclient.WithTokenProvider(storeTokens{store}))
	manager := auth.New(store, client)
	client.BindRefresher(manager)
	return manager, store, client
}

func TestBootstrapWithoutRefreshCredentialEndsAnonymous(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		// Backend answers but hands out no usable token.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	manager, store, _ := newManager(t, mux)
	require.True(t, manager.IsLoading())

	state := manager.Bootstrap(t.Context())

	assert.Equal(t, auth.StateAnonymous, state)
	assert.False(t, manager.IsLoading())
	assert.Empty(t, store.ReadToken())
	assert.False(t, manager.IsAuthenticated())
}

func TestBootstrapWithValidTokenEndsAuthenticated(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","email":"jane@example.com","role":"admin"}`))
	})

	manager, store, _ := newManager(t, mux)
	store.WriteToken("tok1")

	state := manager.Bootstrap(t.Context())

	assert.Equal(t, auth.StateAuthenticated, state)
	assert.True(t, manager.IsAuthenticated())
	assert.True(t, manager.IsAdmin())
	require.NotNil(t, store.ReadUser())
	assert.Equal(t, "u1", store.ReadUser().ID)
}

func TestBootstrapRecoversExpiredTokenWithOneRefresh(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","role":"customer"}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"tok2"}`))
	})

	manager, store, _ := newManager(t, mux)
	store.WriteToken("tok-stale")

	state := manager.Bootstrap(t.Context())

	assert.Equal(t, auth.StateAuthenticated, state)
	assert.Equal(t, "tok2", store.ReadToken())
	assert.Equal(t, int32(1), refreshes.Load())
	assert.False(t, manager.IsAdmin())
}

func TestBootstrapClearsOnIrrecoverableRefreshFailure(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	manager, store, _ := newManager(t, mux)
	store.WriteToken("tok-stale")
	store.WriteUser(&credstore.User{ID: "u1"})

	state := manager.Bootstrap(t.Context())

	assert.Equal(t, auth.StateAnonymous, state)
	assert.Empty(t, store.ReadToken())
	assert.Nil(t, store.ReadUser())
	assert.Nil(t, manager.CurrentUser())
}

func TestBootstrapNonAuthProfileFailureClearsWithoutRefresh(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
	})

	manager, store, _ := newManager(t, mux)
	store.WriteToken("tok1")

	state := manager.Bootstrap(t.Context())

	assert.Equal(t, auth.StateAnonymous, state)
	assert.Empty(t, store.ReadToken())
	assert.Equal(t, int32(0), refreshes.Load())
}

func TestRefreshIsSingleFlight(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	firstArrived := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if refreshes.Add(1) == 1 {
			close(firstArrived)
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"tok-shared"}`))
	})

	manager, store, _ := newManager(t, mux)

	const callers = 5
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		tokens[0], errs[0] = manager.Refresh(t.Context())
	}()
	<-firstArrived

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = manager.Refresh(t.Context())
		}(i)
	}
	// Let the late callers join the in-flight operation before it
	// completes.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), refreshes.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-shared", tokens[i])
	}
	assert.Equal(t, "tok-shared", store.ReadToken())
}

func TestRefreshFailureDoesNotMutateStoredState(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"no session"}`))
	})

	manager, store, _ := newManager(t, mux)
	store.WriteToken("tok-old")

	_, err := manager.Refresh(t.Context())

	require.ErrorIs(t, err, auth.ErrMissingAccessToken)
	assert.Equal(t, "tok-old", store.ReadToken())
}

func TestExpiredCallIsRetriedOnceAndTokenRotates(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"o1"}]`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"tok2"}`))
	})

	_, store, client := newManager(t, mux)
	store.WriteToken("tok1")

	var orders []struct {
		ID string `json:"id"`
	}
	require.NoError(t, client.Get(t.Context(), "/orders/me", &orders))

	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, "tok2", store.ReadToken())
}

func TestLoginWithEmptyTokenStillCachesUser(t *testing.T) {
	t.Parallel()

	manager, store, _ := newManager(t, http.NewServeMux())

	manager.Login("", &credstore.User{ID: "u1", Role: "customer"})

	assert.Empty(t, store.ReadToken())
	assert.False(t, manager.IsAuthenticated())
	require.NotNil(t, manager.CurrentUser())
	assert.Equal(t, "u1", manager.CurrentUser().ID)
}

func TestLogoutClearsLocallyEvenWhenRemoteFails(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	})

	manager, store, _ := newManager(t, mux)
	manager.Login("tok1", &credstore.User{ID: "u1"})

	manager.Logout(t.Context())

	assert.Empty(t, store.ReadToken())
	assert.Nil(t, store.ReadUser())
	assert.Equal(t, auth.StateAnonymous, manager.State())
}

func TestIsAdminRoleComparison(t *testing.T) {
	t.Parallel()

	manager, _, _ := newManager(t, http.NewServeMux())

	assert.False(t, manager.IsAdmin())

	manager.Login("tok1", &credstore.User{ID: "u1", Role: "ADMIN"})
	assert.True(t, manager.IsAdmin())

	manager.Login("tok1", &credstore.User{ID: "u2", Role: "customer"})
	assert.False(t, manager.IsAdmin())

	manager.Login("tok1", &credstore.User{ID: "u3"})
	assert.False(t, manager.IsAdmin())
}

func TestPasswordLoginEstablishesSession(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"accessToken":"tok1","user":{"id":"u1","role":"customer"}}}`))
	})

	manager, store, _ := newManager(t, mux)

	user, err := manager.PasswordLogin(t.Context(), auth.Credentials{Email: "jane@example.com", Password: "secret"})

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "tok1", store.ReadToken())
	assert.True(t, manager.IsAuthenticated())
}
