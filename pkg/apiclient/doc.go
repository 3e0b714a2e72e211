// Package apiclient is the single HTTP adapter between the storefront
// SDK and the backend REST API.
//
// One Client instance is constructed at process start and shared by
// every service, which guarantees a single token-refresh pipeline.
// Each request reads the current bearer token from a TokenProvider;
// a 401 on a not-yet-retried request triggers the bound Refresher once
// and resends the original request with the new token. A second 401,
// or a failed refresh, invalidates the session and surfaces
// ErrSessionExpired.
//
// Failure taxonomy:
//
//   - transient auth expiry: recovered invisibly via refresh-and-resend
//   - confirmed invalid session: ErrSessionExpired, local session cleared
//   - network/timeout/5xx: propagated verbatim, never retried
//   - cancellation: context.Canceled, a control signal rather than an error
//
// The default http.Client uses a 10 second timeout and a cookie jar,
// so the httponly refresh cookie issued by the backend accompanies
// /auth/refresh calls without the SDK ever reading it.
package apiclient
