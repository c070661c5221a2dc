// Package store provides SQLite-backed storage for projects, schemes, builds
// and their logs.
//
// The store owns five normalized tables:
//   - projects: one row per registered project (PK bundle_identifier)
//   - schemes: build configurations (FK project, cascade delete)
//   - builds: execution records (FK scheme, cascade delete)
//   - build_logs: log lines (FK build, cascade delete)
//   - crash_logs: crash reports (FK build, cascade delete)
//
// # Invariants
//
//   - Primary keys are unique and never reassigned.
//   - Foreign keys are enforced on insert; deleting a parent cascades.
//   - schemes.platforms is write-once: UpdateScheme rejects any change to the
//     platform set with ErrImmutableField.
//   - Timestamps are stored as RFC 3339 UTC strings with second precision;
//     ordering ties break on rowid (insertion order).
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Schema evolution runs through the named-step migrator in migrate.go; see
// that file for the ledger semantics.
package store
