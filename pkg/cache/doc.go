// Package cache provides a generic fixed-capacity LRU cache with
// optional time-based expiry. It backs read-side caching of catalog
// entities so repeated detail views do not refetch unchanged data.
//
//	products := cache.New[string, catalog.Product](128, time.Minute)
//	products.Set(id, p)
//	if p, ok := products.Get(id); ok {
//		// serve from cache
//	}
//
// All operations are safe for concurrent use.
package cache
