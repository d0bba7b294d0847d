// Package engine implements offline-first synchronization between the
// local cache and the authoritative remote store.
//
// The Engine does the actual work: push drains the outbox to the
// remote, pull merges remote state back with per-record last-write-wins.
// The Scheduler decides when the Engine runs (periodic tick, reconnect,
// explicit wake, retry backoff) and enforces single-flight. The Tracker
// is the injectable sync-status surface the presentation layer reads.
//
// The package never talks to a network or a wall clock directly:
// RemoteStore, ConnectivitySource, and Clock are all injected, so every
// state machine here is testable synchronously.
package engine
