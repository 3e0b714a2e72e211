package storekit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storekit"
	"github.com/dmitrymomot/storekit/pkg/auth"
	"github.com/dmitrymomot/storekit/pkg/cart"
	"github.com/dmitrymomot/storekit/pkg/config"
	"github.com/dmitrymomot/storekit/pkg/credstore"
)

func newClient(t *testing.T, handler http.Handler) (*storekit.Client, *credstore.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := credstore.NewMemoryStore()
	client, err := storekit.New(
		storekit.WithConfig(config.Config{BaseURL: srv.URL, HTTPTimeout: 5 * time.Second}),
		storekit.WithStore(store),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, store
}

func TestNewWiresAllServices(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t, http.NewServeMux())

	assert.NotNil(t, client.Auth)
	assert.NotNil(t, client.Cart)
	assert.NotNil(t, client.Catalog)
	assert.NotNil(t, client.Search)
	assert.NotNil(t, client.Checkout)
	assert.NotNil(t, client.Likes)
}

func TestBootstrapSettlesSessionAndCart(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"tok1"}`))
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","role":"customer"}`))
	})
	mux.HandleFunc("GET /cart/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"l1","productId":"p1","quantity":2,"unitPrice":5}]}`))
	})

	client, store := newClient(t, mux)

	state := client.Bootstrap(t.Context())

	assert.Equal(t, auth.StateAuthenticated, state)
	assert.Equal(t, "tok1", store.ReadToken())
	require.Len(t, client.Cart.Items(), 1)
	assert.InDelta(t, 10.0, client.Cart.Subtotal(), 0.001)
}

func TestBootstrapAlwaysSettles(t *testing.T) {
	t.Parallel()

	// Every endpoint fails; the session must still land anonymous.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	client, _ := newClient(t, handler)

	state := client.Bootstrap(t.Context())

	assert.Equal(t, auth.StateAnonymous, state)
	assert.False(t, client.Auth.IsLoading())
	assert.Empty(t, client.Cart.Items())
}

func TestLogoutDropsCartView(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"l1","productId":"p1","quantity":1,"unitPrice":3}]}`))
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	client, store := newClient(t, mux)
	store.WriteToken("tok1")
	client.Cart.Refresh(t.Context())
	require.NotEmpty(t, client.Cart.Items())

	client.Auth.Logout(t.Context())

	assert.Eventually(t, func() bool {
		return len(client.Cart.Items()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGuards(t *testing.T) {
	t.Parallel()

	client, store := newClient(t, http.NewServeMux())

	assert.ErrorIs(t, client.RequireAuth(), storekit.ErrUnauthenticated)
	assert.ErrorIs(t, client.RequireAdmin(), storekit.ErrUnauthenticated)

	store.WriteToken("tok1")
	client.Auth.Login("tok1", &credstore.User{ID: "u1", Role: "customer"})
	assert.NoError(t, client.RequireAuth())
	assert.ErrorIs(t, client.RequireAdmin(), storekit.ErrForbidden)

	client.Auth.Login("tok1", &credstore.User{ID: "u1", Role: "admin"})
	assert.NoError(t, client.RequireAdmin())
}

func TestGuestCartThroughFacade(t *testing.T) {
	t.Parallel()

	client, store := newClient(t, http.NewServeMux())

	require.NoError(t, client.Cart.Add(t.Context(), cart.Item{ID: "p1", Name: "Widget", UnitPrice: 2, Quantity: 3}))

	require.Len(t, client.Cart.Items(), 1)
	assert.NotEmpty(t, store.ReadGuestCart())
}
