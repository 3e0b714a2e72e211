package likes

import (
	"encoding/json"
	"sync"

	"github.com/dmitrymomot/storekit/pkg/credstore"
)

// Item is a liked product snapshot, enough to render the likes page
// without a catalog round trip.
type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image string  `json:"image"`
	Price float64 `json:"price"`
}

// Service keeps the liked-items list in durable client-side storage.
// Likes are purely local: they survive restarts but have no backend
// counterpart. Corrupt stored data reads as an empty list.
type Service struct {
	store credstore.Store

	mu    sync.RWMutex
	items []Item
}

// New creates the service and loads any previously liked items.
func New(store credstore.Store) *Service {
	s := &Service{store: store}
	if raw := store.ReadLikes(); len(raw) > 0 {
		// A corrupt payload leaves items empty.
		_ = json.Unmarshal(raw, &s.items)
	}
	return s
}

// List returns a snapshot of liked items.
func (s *Service) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return items
}

// Contains reports whether the product is liked.
func (s *Service) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Add likes an item. Adding an already-liked item is a no-op.
func (s *Service) Add(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == item.ID {
			return
		}
	}
	s.items = append(s.items, item)
	s.persistLocked()
}

// Remove unlikes an item by id.
func (s *Service) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.persistLocked()
}

func (s *Service) persistLocked() {
	raw, err := json.Marshal(s.items)
	if err != nil {
		return
	}
	s.store.WriteLikes(raw)
}
