// Package auth owns the session lifecycle of the storefront client.
//
// The session moves through four states:
//
//	uninitialized -> loading -> authenticated | anonymous
//
// Bootstrap runs once at startup and always settles in authenticated
// or anonymous; login and silent refresh move anonymous sessions to
// authenticated, and logout or an irrecoverable refresh failure moves
// them back. The Manager implements both apiclient.TokenProvider and
// apiclient.Refresher, so the shared HTTP adapter can transparently
// recover a single expired-token failure per request.
//
// Refresh is single-flight via golang.org/x/sync/singleflight: no
// matter how many requests hit a 401 simultaneously, one refresh call
// goes out and everyone shares its result.
//
// Session changes (token written or cleared) are announced through the
// credential store's subscription hub; the cart reconciler listens
// there to swap between guest and server-backed mode.
package auth
