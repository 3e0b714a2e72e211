// Package cart reconciles the customer's cart across the guest and
// authenticated modes of a storefront session.
//
// Authenticated mode treats the backend as the only write target:
// every mutation is a remote call followed by a full re-fetch
// (write-then-reload), so the local view always reflects server-side
// pricing and stock authority. Guest mode keeps lines locally, merged
// by line identity, with writes mirrored to durable storage.
//
// The reconciler subscribes to session-changed notifications from the
// credential store and resyncs on every login or logout. Guest data is
// deliberately not merged into the account cart on login.
//
// Quantities are clamped to a minimum of 1 on every update; removing a
// line is the only way to reach zero. Remote fetch failures degrade to
// an empty view instead of surfacing an error.
package cart
