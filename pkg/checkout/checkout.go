package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
)

// Service drives the checkout flow: delivery addresses, order
// placement and payment session handling. Every call requires an
// authenticated session and rides the shared client's 401 recovery.
type Service struct {
	client *apiclient.Client
}

// New creates a checkout service over the shared API client.
func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// Address is a delivery address on the customer's account.
type Address struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// Order is a placed order with its lifecycle status.
type Order struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"paymentMethod"`
	Items         []OrderItem `json:"items"`
	Subtotal      float64     `json:"subtotal"`
	ShippingFee   float64     `json:"shippingFee"`
	Total         float64     `json:"total"`
	CreatedAt     string      `json:"createdAt"`
}

// OrderRequest places an order from the current cart.
type OrderRequest struct {
	AddressID      string `json:"addressId"`
	ShippingMethod string `json:"shippingMethod,omitempty"`
	PaymentMethod  string `json:"paymentMethod"`
	Note           string `json:"note,omitempty"`
}

// PaymentSession is a hosted payment page handed off to the customer.
type PaymentSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// MyAddresses lists the customer's saved addresses.
func (s *Service) MyAddresses(ctx context.Context) ([]Address, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/addresses/me", &raw); err != nil {
		return nil, err
	}
	var addresses []Address
	if err := json.Unmarshal(apiclient.UnwrapData(raw), &addresses); err != nil {
		// A non-array payload reads as no addresses.
		return nil, nil
	}
	return addresses, nil
}

// CreateAddress saves a new delivery address.
func (s *Service) CreateAddress(ctx context.Context, addr Address) (*Address, error) {
	var created Address
	if err := s.client.Post(ctx, "/addresses", addr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateAddress updates a saved address.
func (s *Service) UpdateAddress(ctx context.Context, id string, addr Address) (*Address, error) {
	var updated Address
	if err := s.client.Put(ctx, "/addresses/"+id, addr, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAddress removes a saved address.
func (s *Service) DeleteAddress(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/addresses/"+id, nil)
}

// CreateOrder places an order from the server-side cart.
func (s *Service) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	var raw json.RawMessage
	if err := s.client.Post(ctx, "/orders", req, &raw); err != nil {
		return nil, err
	}
	return decodeOrder(raw)
}

// MyOrders lists the customer's order history.
func (s *Service) MyOrders(ctx context.Context) ([]Order, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/orders/me", &raw); err != nil {
		return nil, err
	}
	var orders []Order
	if err := json.Unmarshal(apiclient.UnwrapData(raw), &orders); err != nil {
		return nil, nil
	}
	return orders, nil
}

// GetOrder fetches one order by id.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/orders/"+id, &raw); err != nil {
		return nil, err
	}
	return decodeOrder(raw)
}

// CreateStripeSession opens a hosted Stripe checkout session for a
// pending order.
func (s *Service) CreateStripeSession(ctx context.Context, orderID string) (*PaymentSession, error) {
	var raw json.RawMessage
	if err := s.client.Post(ctx, "/orders/"+orderID+"/stripe/checkout-session", nil, &raw); err != nil {
		return nil, err
	}
	var session PaymentSession
	if err := json.Unmarshal(apiclient.UnwrapData(raw), &session); err != nil {
		return nil, fmt.Errorf("checkout: decode payment session: %w", err)
	}
	return &session, nil
}

// StripeConfirmation reports a completed hosted payment back to the
// backend.
type StripeConfirmation struct {
	SessionID string `json:"sessionId"`
	OrderID   string `json:"orderId,omitempty"`
}

// ConfirmStripeOrder finalizes an order after a successful hosted
// payment.
func (s *Service) ConfirmStripeOrder(ctx context.Context, conf StripeConfirmation) (*Order, error) {
	var raw json.RawMessage
	if err := s.client.Post(ctx, "/orders/stripe/confirm", conf, &raw); err != nil {
		return nil, err
	}
	return decodeOrder(raw)
}

// AdminOrders lists all orders across customers. Requires an admin
// session.
func (s *Service) AdminOrders(ctx context.Context) ([]Order, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/orders/admin/all", &raw); err != nil {
		return nil, err
	}
	var orders []Order
	if err := json.Unmarshal(apiclient.UnwrapData(raw), &orders); err != nil {
		return nil, nil
	}
	return orders, nil
}

// UpdateOrderStatus moves an order through its lifecycle. Requires an
// admin session.
func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error) {
	body := map[string]string{"status": status}
	var raw json.RawMessage
	if err := s.client.Put(ctx, "/orders/admin/"+id+"/status", body, &raw); err != nil {
		return nil, err
	}
	return decodeOrder(raw)
}

func decodeOrder(raw json.RawMessage) (*Order, error) {
	var order Order
	if err := json.Unmarshal(apiclient.UnwrapData(raw), &order); err != nil {
		return nil, fmt.Errorf("checkout: decode order: %w", err)
	}
	return &order, nil
}
