package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
	"github.com/dmitrymomot/storekit/pkg/cache"
)

const (
	defaultPageSize = 12

	productCacheSize = 128
	productCacheTTL  = time.Minute
)

// Service reads the product catalog: products, categories and brands.
// Product detail reads are cached briefly; admin writes invalidate the
// touched entry.
type Service struct {
	client   *apiclient.Client
	log      *slog.Logger
	products *cache.LRU[string, Product]
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a catalog service over the shared API client.
func New(client *apiclient.Client, opts ...Option) *Service {
	s := &Service{
		client:   client,
		log:      slog.Default(),
		products: cache.New[string, Product](productCacheSize, productCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProductPage is one page of catalog results with the backend's
// pagination metadata passed through untouched.
type ProductPage struct {
	Products []Product
	Meta     map[string]any
}

// ListProducts fetches a catalog page. Non-positive page and limit
// fall back to the first page of the default size.
func (s *Service) ListProducts(ctx context.Context, page, limit int) (*ProductPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	var payload struct {
		Data []remoteProduct `json:"data"`
		Meta map[string]any  `json:"meta"`
	}
	path := fmt.Sprintf("/products?page=%d&limit=%d", page, limit)
	if err := s.client.Get(ctx, path, &payload); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(payload.Data))
	for _, p := range payload.Data {
		products = append(products, p.toProduct())
	}
	return &ProductPage{Products: products, Meta: payload.Meta}, nil
}

// GetProduct fetches a single product by id, serving repeat reads from
// a short-lived cache.
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	if product, ok := s.products.Get(id); ok {
		return &product, nil
	}

	var raw remoteProduct
	if err := s.client.Get(ctx, "/products/"+id, &raw); err != nil {
		return nil, err
	}
	product := raw.toProduct()
	s.products.Set(id, product)
	return &product, nil
}

// ListCategories fetches all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/categories", &raw); err != nil {
		return nil, err
	}
	return normalizeList[Category](raw), nil
}

// ListBrands fetches all brands.
func (s *Service) ListBrands(ctx context.Context) ([]Brand, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/brands", &raw); err != nil {
		return nil, err
	}
	return normalizeList[Brand](raw), nil
}

// GetBrand fetches a single brand by id.
func (s *Service) GetBrand(ctx context.Context, id string) (*Brand, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/brands/"+id, &raw); err != nil {
		return nil, err
	}
	var brand Brand
	if err := json.Unmarshal(unwrapObject(raw), &brand); err != nil {
		return nil, fmt.Errorf("catalog: decode brand: %w", err)
	}
	return &brand, nil
}
