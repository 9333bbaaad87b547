// Package session holds the authenticated identity for the lifetime of
// the process. The [Store] is the single source of truth for "is a user
// logged in": the engine populates it after a successful login or
// OTP-gated registration, the route guard reads it on every navigation,
// and UI code subscribes to it for synchronous change notification.
//
// # Invariant
//
// The session is either fully authenticated (identity and token both
// set) or fully anonymous. No partial state is representable through
// the public API: [Store.SetAuthenticated] rejects incomplete input and
// [Store.Clear] wipes identity and token together.
//
// # Persistence
//
// The issued token is the only state that must survive a process
// restart. It is written (with an identity snapshot and expiry) to a
// [TokenStorage] under a fixed key, and read back by [Store.Load] at
// startup; a locally expired record is discarded rather than restored.
//
// # Architecture boundaries
//
// This package does NOT talk to the Identity Service, run auth flows,
// or make routing decisions; those belong to the Engine and the guard.
package session
