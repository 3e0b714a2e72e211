package checkout_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
	"github.com/dmitrymomot/storekit/pkg/checkout"
)

func newService(t *testing.T, handler http.Handler) *checkout.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return checkout.New(apiclient.New(srv.URL))
}

func TestCreateOrderDecodesEnvelopedResponse(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var req checkout.OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a1", req.AddressID)
		assert.Equal(t, "stripe", req.PaymentMethod)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"o1","status":"pending","total":42.5,
			"items":[{"id":"l1","productId":"p1","quantity":2,"unitPrice":20,"lineTotal":40}]}}`))
	})

	svc := newService(t, mux)

	order, err := svc.CreateOrder(t.Context(), checkout.OrderRequest{AddressID: "a1", PaymentMethod: "stripe"})

	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, "pending", order.Status)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 42.5, order.Total, 0.001)
}

func TestMyOrdersToleratesNonArrayPayload(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"no orders yet"}`))
	})

	svc := newService(t, mux)

	orders, err := svc.MyOrders(t.Context())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestAddressLifecycle(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /addresses/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"a1","city":"Kyiv","isDefault":true}]}`))
	})
	mux.HandleFunc("POST /addresses", func(w http.ResponseWriter, r *http.Request) {
		var addr checkout.Address
		require.NoError(t, json.NewDecoder(r.Body).Decode(&addr))
		addr.ID = "a2"
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(addr))
	})
	mux.HandleFunc("DELETE /addresses/a2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	svc := newService(t, mux)

	addresses, err := svc.MyAddresses(t.Context())
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.True(t, addresses[0].IsDefault)

	created, err := svc.CreateAddress(t.Context(), checkout.Address{City: "Lviv", Line1: "Main 1"})
	require.NoError(t, err)
	assert.Equal(t, "a2", created.ID)
	assert.Equal(t, "Lviv", created.City)

	require.NoError(t, svc.DeleteAddress(t.Context(), "a2"))
}

func TestStripeSessionFlow(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders/o1/stripe/checkout-session", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"cs_123","url":"https://pay.example.com/cs_123"}}`))
	})
	mux.HandleFunc("POST /orders/stripe/confirm", func(w http.ResponseWriter, r *http.Request) {
		var conf checkout.StripeConfirmation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&conf))
		assert.Equal(t, "cs_123", conf.SessionID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"o1","status":"paid"}`))
	})

	svc := newService(t, mux)

	session, err := svc.CreateStripeSession(t.Context(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_123", session.URL)

	order, err := svc.ConfirmStripeOrder(t.Context(), checkout.StripeConfirmation{SessionID: "cs_123"})
	require.NoError(t, err)
	assert.Equal(t, "paid", order.Status)
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /orders/admin/o1/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "shipped", body["status"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"o1","status":"shipped"}`))
	})

	svc := newService(t, mux)

	order, err := svc.UpdateOrderStatus(t.Context(), "o1", "shipped")
	require.NoError(t, err)
	assert.Equal(t, "shipped", order.Status)
}
