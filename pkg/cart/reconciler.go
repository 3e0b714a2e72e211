package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
	"github.com/dmitrymomot/storekit/pkg/credstore"
)

// Reconciler presents a single cart view regardless of authentication
// mode. With a token present, the remote cart is the source of truth
// and every mutation is write-then-reload: issue the remote call, then
// re-fetch, so server-side price and stock adjustments are never
// masked by a locally computed result. Without a token, mutations are
// local-only, with the lines written through to durable storage.
type Reconciler struct {
	client *apiclient.Client
	store  credstore.Store
	log    *slog.Logger

	mu    sync.RWMutex
	items []Item

	unsubscribe func()
}

// Option configures the reconciler.
type Option func(*Reconciler)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a reconciler and subscribes it to session changes: a
// login or logout immediately resyncs the cart against the new mode.
func New(client *apiclient.Client, store credstore.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		client: client,
		store:  store,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.unsubscribe = store.Subscribe(func(struct{}) {
		// Handlers run on the emitter's goroutine; the resync does
		// network I/O so it moves off the notification path.
		go r.Refresh(context.Background())
	})
	return r
}

// Close detaches the reconciler from session notifications.
func (r *Reconciler) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// Items returns a snapshot of the current cart lines.
func (r *Reconciler) Items() []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]Item, len(r.items))
	copy(items, r.items)
	return items
}

// Subtotal sums the line totals of the current view.
func (r *Reconciler) Subtotal() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total float64
	for _, item := range r.items {
		total += item.LineTotal
	}
	return total
}

// Refresh re-derives the cart view. Without a token the view resets to
// empty. With a token the remote cart is fetched; a fetch failure also
// resets to empty rather than surfacing an error, favoring an
// available (if stale-free) view over a broken one.
func (r *Reconciler) Refresh(ctx context.Context) []Item {
	if !r.authenticated() {
		r.setItems(nil)
		return nil
	}

	var raw json.RawMessage
	if err := r.client.Get(ctx, "/cart/me", &raw); err != nil {
		r.log.DebugContext(ctx, "cart fetch failed", slog.Any("error", err))
		r.setItems(nil)
		return nil
	}

	items := normalizeItems(raw)
	r.setItems(items)
	return items
}

// Add puts a product into the cart. Authenticated mode requires a
// resolvable product identifier and is a no-op without one; guest mode
// merges into an existing line with the same identity or appends a new
// one.
func (r *Reconciler) Add(ctx context.Context, item Item) error {
	quantity := clampQuantity(item.Quantity)

	if r.authenticated() {
		productID := firstNonEmpty(item.ProductID, item.ID)
		if productID == "" {
			return nil
		}
		body := map[string]any{"productId": productID, "quantity": quantity}
		if err := r.client.Post(ctx, "/cart/items", body, nil); err != nil {
			return err
		}
		r.Refresh(ctx)
		return nil
	}

	r.mu.Lock()
	merged := false
	for i := range r.items {
		if r.items[i].ID == item.ID && item.ID != "" {
			r.items[i].Quantity += quantity
			r.items[i].LineTotal = float64(r.items[i].Quantity) * r.items[i].UnitPrice
			merged = true
			break
		}
	}
	if !merged {
		line := item
		line.ID = firstNonEmpty(item.ID, item.ProductID, uuid.NewString())
		line.Quantity = quantity
		line.LineTotal = float64(line.Quantity) * line.UnitPrice
		if line.Name == "" {
			line.Name = fallbackName
		}
		if line.Image == "" {
			line.Image = fallbackImage
		}
		r.items = append(r.items, line)
	}
	r.persistGuestLocked()
	r.mu.Unlock()
	return nil
}

// UpdateQuantity sets a line's quantity, clamped to at least 1 in both
// modes.
func (r *Reconciler) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	quantity = clampQuantity(quantity)

	if r.authenticated() {
		body := map[string]any{"quantity": quantity}
		if err := r.client.Put(ctx, "/cart/items/"+id, body, nil); err != nil {
			return err
		}
		r.Refresh(ctx)
		return nil
	}

	r.mu.Lock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Quantity = quantity
			r.items[i].LineTotal = float64(quantity) * r.items[i].UnitPrice
			break
		}
	}
	r.persistGuestLocked()
	r.mu.Unlock()
	return nil
}

// Remove drops a line from the cart.
func (r *Reconciler) Remove(ctx context.Context, id string) error {
	if r.authenticated() {
		if err := r.client.Delete(ctx, "/cart/items/"+id, nil); err != nil {
			return err
		}
		r.Refresh(ctx)
		return nil
	}

	r.mu.Lock()
	kept := r.items[:0]
	for _, item := range r.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	r.items = kept
	r.persistGuestLocked()
	r.mu.Unlock()
	return nil
}

// Clear empties the cart. Idempotent: clearing an empty cart succeeds.
func (r *Reconciler) Clear(ctx context.Context) error {
	if r.authenticated() {
		if err := r.client.Delete(ctx, "/cart/clear", nil); err != nil {
			return err
		}
		r.Refresh(ctx)
		return nil
	}

	r.mu.Lock()
	r.items = nil
	r.persistGuestLocked()
	r.mu.Unlock()
	return nil
}

func (r *Reconciler) authenticated() bool {
	return r.store.ReadToken() != ""
}

func (r *Reconciler) setItems(items []Item) {
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
}

// persistGuestLocked writes the guest lines through to durable
// storage. Guest state survives restarts in the store but is not
// restored into the view automatically; Refresh without a token
// always yields an empty cart.
func (r *Reconciler) persistGuestLocked() {
	raw, err := json.Marshal(r.items)
	if err != nil {
		return
	}
	r.store.WriteGuestCart(raw)
}
