// Package catalog is the product catalog client: product listing and
// detail, categories, brands, the admin CRUD surface and
// search-as-you-type with cancellation.
//
// List payload normalization tolerates the envelope drift the backend
// has accumulated (bare arrays, data/items wrappers), and product
// mapping fills display fallbacks (placeholder thumbnail, zero
// rating) so view code never branches on missing fields.
package catalog
