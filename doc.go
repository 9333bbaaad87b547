// Package clubauth drives the riders' club site's authentication
// lifecycle against the external Identity Service: registration with
// email-OTP verification, login, logout, and OTP-gated password
// recovery, together with the session store and route guard the rest of
// the site reads.
//
// The package is built around three cooperating pieces:
//
//   - [session.Store]: the single source of truth for "is a user
//     logged in", with synchronous change notification and a durable
//     token record that survives a restart.
//   - [Engine]: the flow controller. Each multi-step flow is an
//     explicit state machine ([FlowState]); what can happen next is
//     enumerable, not implicit in callback nesting.
//   - [guard.Guard]: per-navigation route decisions with consume-once
//     post-login redirect intents.
//
// Engines are created through [Builder.Build] and treated as immutable
// afterwards. All Identity Service traffic goes through the
// constructor-injected [identity.Client]; the engine performs no other
// I/O beyond token persistence and audit dispatch.
//
// # What this package must NOT do
//
//   - Hash, store, or otherwise interpret passwords beyond local policy
//     checks; credentials are owned by the Identity Service.
//   - Show raw transport errors to callers: every network-originating
//     failure is classified into the error taxonomy in errors.go before
//     it crosses the package boundary.
//   - Run two operations for the same flow concurrently; a submit while
//     one is in flight fails fast with [ErrFlowBusy].
package clubauth
