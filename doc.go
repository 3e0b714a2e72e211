// Package storekit is a Go client SDK for a storefront REST backend:
// authentication with silent token refresh, a guest/authenticated cart
// reconciler, catalog browsing with cancellable search, checkout and a
// back-office admin surface.
//
// The SDK is composed of small packages under pkg/ that can be used
// independently; storekit.New wires them into a single Client with one
// shared HTTP adapter and one token-refresh pipeline:
//
//	client, err := storekit.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.Bootstrap(ctx)
//	if client.Auth.IsAuthenticated() {
//		items := client.Cart.Items()
//		_ = items
//	}
package storekit
