// Package credstore provides durable client-side storage for the
// storefront session: the bearer token, the cached user profile, the
// guest cart and liked items.
//
// Three backends implement the same Store interface:
//
//   - MemoryStore: process-local, the default and the test double
//   - FileStore: single JSON file, for CLI and daemon hosts
//   - RedisStore: shared state for server-side deployments
//
// Every token mutation emits exactly one session-changed signal to
// subscribers, synchronously. Reads never emit. Corrupt stored JSON is
// indistinguishable from absence: ReadUser returns nil rather than an
// error, so callers never have to handle storage corruption.
package credstore
