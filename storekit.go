package storekit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
	"github.com/dmitrymomot/storekit/pkg/auth"
	"github.com/dmitrymomot/storekit/pkg/cart"
	"github.com/dmitrymomot/storekit/pkg/catalog"
	"github.com/dmitrymomot/storekit/pkg/checkout"
	"github.com/dmitrymomot/storekit/pkg/config"
	"github.com/dmitrymomot/storekit/pkg/credstore"
	"github.com/dmitrymomot/storekit/pkg/likes"
	"github.com/dmitrymomot/storekit/pkg/logger"
	"github.com/dmitrymomot/storekit/pkg/redis"
)

var (
	// ErrUnauthenticated is returned by guards when no session exists.
	ErrUnauthenticated = errors.New("storekit: authentication required")

	// ErrForbidden is returned by guards when the session lacks the
	// required capability.
	ErrForbidden = errors.New("storekit: admin capability required")
)

// Client is the composed storefront SDK: one HTTP adapter, one session
// manager and the services built on them. Construct it once at process
// start and pass it by reference.
type Client struct {
	cfg   config.Config
	log   *slog.Logger
	store credstore.Store
	api   *apiclient.Client

	Auth     *auth.Manager
	Cart     *cart.Reconciler
	Catalog  *catalog.Service
	Search   *catalog.Searcher
	Checkout *checkout.Service
	Likes    *likes.Service
}

type clientOptions struct {
	cfg        *config.Config
	store      credstore.Store
	log        *slog.Logger
	httpClient *http.Client
}

// Option configures the SDK at construction time.
type Option func(*clientOptions)

// WithConfig supplies configuration directly instead of reading the
// environment.
func WithConfig(cfg config.Config) Option {
	return func(o *clientOptions) { o.cfg = &cfg }
}

// WithStore replaces the credential store backend.
func WithStore(store credstore.Store) Option {
	return func(o *clientOptions) { o.store = store }
}

// WithLogger replaces the logger built from configuration.
func WithLogger(log *slog.Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// WithHTTPClient replaces the underlying HTTP client, e.g. in tests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = client }
}

// New builds the SDK. Without options, configuration comes from the
// environment and credentials live in memory (or in the file named by
// STOREFRONT_STATE_PATH).
func New(opts ...Option) (*Client, error) {
	var options clientOptions
	for _, opt := range opts {
		opt(&options)
	}

	var cfg config.Config
	if options.cfg != nil {
		cfg = *options.cfg
	} else if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	log := options.log
	if log == nil {
		log = logger.New(
			logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
			logger.WithFormat(logger.Format(cfg.LogFormat)),
		)
	}

	store := options.store
	if store == nil {
		switch {
		case cfg.RedisURL != "":
			client, err := redis.Connect(context.Background(), redis.Config{URL: cfg.RedisURL})
			if err != nil {
				return nil, err
			}
			store = credstore.NewRedisStore(client, "storefront:")
		case cfg.StatePath != "":
			fileStore, err := credstore.NewFileStore(cfg.StatePath)
			if err != nil {
				return nil, err
			}
			store = fileStore
		default:
			store = credstore.NewMemoryStore()
		}
	}

	apiOpts := []apiclient.Option{
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithTokenProvider(storeTokens{store}),
		apiclient.WithLogger(log),
	}
	if options.httpClient != nil {
		apiOpts = append(apiOpts, apiclient.WithHTTPClient(options.httpClient))
	}
	api := apiclient.New(cfg.BaseURL, apiOpts...)

	manager := auth.New(store, api, auth.WithLogger(log))
	api.BindRefresher(manager)

	catalogSvc := catalog.New(api, catalog.WithLogger(log))

	return &Client{
		cfg:      cfg,
		log:      log,
		store:    store,
		api:      api,
		Auth:     manager,
		Cart:     cart.New(api, store, cart.WithLogger(log)),
		Catalog:  catalogSvc,
		Search:   catalog.NewSearcher(catalogSvc),
		Checkout: checkout.New(api),
		Likes:    likes.New(store),
	}, nil
}

// storeTokens adapts the credential store to the per-request token
// reads of the HTTP adapter.
type storeTokens struct {
	store credstore.Store
}

func (s storeTokens) Token() string { return s.store.ReadToken() }

// Bootstrap establishes the session and syncs the cart. Call once at
// startup; it always settles, in the worst case as an anonymous
// session with an empty cart.
func (c *Client) Bootstrap(ctx context.Context) auth.State {
	state := c.Auth.Bootstrap(ctx)
	c.Cart.Refresh(ctx)
	return state
}

// Close releases subscriptions held by the SDK.
func (c *Client) Close() {
	c.Cart.Close()
}

// RequireAuth guards operations that need a signed-in customer.
func (c *Client) RequireAuth() error {
	if !c.Auth.IsAuthenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin guards the back-office surface.
func (c *Client) RequireAdmin() error {
	if err := c.RequireAuth(); err != nil {
		return err
	}
	if !c.Auth.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
