// Package store provides SQLite-backed storage for the utterance history.
//
// Every resolved phrase is appended as one row holding the phrase, the
// action identifier and the lowered target tree in canonical JSON.
//
// # Ordering
//
// Rows are ordered by seq, a logical clock owned by the engine, and ties
// are broken by id with COLLATE BINARY. Wall-clock time is never stored.
//
// # Idempotency
//
// utterance_hash is unique. Writing the same resolution twice under the
// same seq keeps the first row; see WriteUtterance.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s on lock contention
package store
