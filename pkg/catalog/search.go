package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
)

const (
	searchFetchLimit  = 100
	searchResultLimit = 15
)

// Searcher runs speculative search-as-you-type queries with
// latest-wins semantics: starting a new search cancels any in-flight
// one, and a superseded search never updates the shared result view
// even if its response arrives later.
type Searcher struct {
	svc *Service

	mu      sync.Mutex
	cancel  context.CancelFunc
	gen     uint64
	results []Product
}

// NewSearcher creates a searcher over the catalog service.
func NewSearcher(svc *Service) *Searcher {
	return &Searcher{svc: svc}
}

// Search filters the catalog by a case-insensitive substring of the
// product name, capped at 15 matches. A superseded call returns
// context.Canceled; that is a control signal, not a failure, and the
// result view is left untouched.
func (s *Searcher) Search(ctx context.Context, query string) ([]Product, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	query = strings.TrimSpace(query)
	if query == "" {
		s.apply(gen, nil)
		return nil, nil
	}

	// The backend has no search endpoint; filtering happens client
	// side over the first hundred products.
	page, err := s.svc.ListProducts(ctx, 1, searchFetchLimit)
	if err != nil {
		if apiclient.IsCanceled(err) {
			s.svc.log.DebugContext(ctx, "search superseded", slog.String("query", query))
		}
		return nil, err
	}

	keyword := strings.ToLower(query)
	matches := make([]Product, 0, searchResultLimit)
	for _, p := range page.Products {
		if strings.Contains(strings.ToLower(p.Name), keyword) {
			matches = append(matches, p)
			if len(matches) == searchResultLimit {
				break
			}
		}
	}

	s.apply(gen, matches)
	return matches, nil
}

// Results returns the matches of the most recent completed,
// non-superseded search.
func (s *Searcher) Results() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := make([]Product, len(s.results))
	copy(results, s.results)
	return results
}

// apply installs results only if no newer search has started since.
func (s *Searcher) apply(gen uint64, results []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.results = results
	}
}
