package notify

import "sync"

// Hub delivers values of type T to registered handlers synchronously,
// in subscription order. It replaces ad-hoc callback lists for
// session-changed style notifications where consumers must observe the
// change before the emitting call returns.
//
// Handlers run on the emitting goroutine; a handler that needs to do
// slow work should hand it off itself.
type Hub[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// NewHub creates an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{}
}

// Subscribe registers fn and returns a function that removes it.
// The returned unsubscribe is idempotent.
func (h *Hub[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.handlers = append(h.handlers, subscription[T]{id: id, fn: fn})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, s := range h.handlers {
			if s.id == id {
				h.handlers = append(h.handlers[:i], h.handlers[i+1:]...)
				return
			}
		}
	}
}

// Emit invokes every registered handler with v, in subscription order.
// The handler list is snapshotted first so handlers may subscribe or
// unsubscribe without deadlocking.
func (h *Hub[T]) Emit(v T) {
	h.mu.Lock()
	snapshot := make([]subscription[T], len(h.handlers))
	copy(snapshot, h.handlers)
	h.mu.Unlock()

	for _, s := range snapshot {
		s.fn(v)
	}
}

// Len reports the number of active subscriptions.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}
