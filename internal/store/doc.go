// Package store provides the SQLite-backed rename journal.
//
// The journal is append-only:
//   - Sessions: one row per engine load, with how each ref was resolved
//   - Renames: every applied rename, stamped with the session's logical seq
//
// # Critical Patterns
//
// Idempotent writes
//   - Rename IDs are content-addressed (SHA-256 with domain separation)
//   - INSERT ... ON CONFLICT DO NOTHING, so re-recording is harmless
//
// Logical ordering
//   - Renames are ordered by seq (the engine's logical clock), never by
//     wall time
//   - All queries include ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - Single connection: SQLite allows one writer
//   - user_version: Incremental migrations on Open
package store
