package store

import (
	"database/sql"
	"fmt"
	"time"
)

// migration is one named, forward-only schema step. Steps are applied in
// declaration order, each inside its own transaction together with its
// ledger row, so a step either lands completely or not at all.
type migration struct {
	Name string
	SQL  string
}

// migrations is the full, ordered history of the schema. Never reorder or
// edit an applied step; append a new one.
var migrations = []migration{
	{
		Name: "0001_create_projects",
		SQL: `
			CREATE TABLE projects (
				bundle_identifier TEXT NOT NULL PRIMARY KEY,
				name              TEXT NOT NULL,
				display_name      TEXT NOT NULL,
				git_repo_url      TEXT NOT NULL,
				xcodeproj_name    TEXT NOT NULL,
				working_directory TEXT NOT NULL,
				created_at        TEXT NOT NULL
			)
		`,
	},
	{
		Name: "0002_create_schemes",
		SQL: `
			CREATE TABLE schemes (
				id                        TEXT NOT NULL PRIMARY KEY,
				project_bundle_identifier TEXT NOT NULL,
				name                      TEXT NOT NULL,
				platforms                 TEXT NOT NULL,
				display_order             INTEGER NOT NULL DEFAULT 0,

				FOREIGN KEY(project_bundle_identifier)
					REFERENCES projects(bundle_identifier) ON DELETE CASCADE
			)
		`,
	},
	{
		Name: "0003_create_builds",
		SQL: `
			CREATE TABLE builds (
				id             TEXT NOT NULL PRIMARY KEY,
				scheme_id      TEXT NOT NULL,
				version_string TEXT NOT NULL,
				build_number   INTEGER NOT NULL,
				commit_hash    TEXT NOT NULL,
				created_at     TEXT NOT NULL,
				start_date     TEXT,
				end_date       TEXT,
				export_options TEXT NOT NULL DEFAULT '[]',
				status         TEXT NOT NULL,
				progress       REAL NOT NULL DEFAULT 0,
				device_name    TEXT NOT NULL DEFAULT '',
				os_version     TEXT NOT NULL DEFAULT '',
				memory_gb      REAL NOT NULL DEFAULT 0,
				processor      TEXT NOT NULL DEFAULT '',

				FOREIGN KEY(scheme_id) REFERENCES schemes(id) ON DELETE CASCADE
			)
		`,
	},
	{
		Name: "0004_create_build_logs",
		SQL: `
			CREATE TABLE build_logs (
				id         TEXT NOT NULL PRIMARY KEY,
				build_id   TEXT NOT NULL,
				category   TEXT,
				level      TEXT NOT NULL,
				content    TEXT NOT NULL,
				created_at TEXT NOT NULL,

				FOREIGN KEY(build_id) REFERENCES builds(id) ON DELETE CASCADE
			)
		`,
	},
	{
		Name: "0005_create_crash_logs",
		SQL: `
			CREATE TABLE crash_logs (
				incident_identifier TEXT NOT NULL PRIMARY KEY,
				build_id            TEXT NOT NULL,
				thread_name         TEXT NOT NULL DEFAULT '',
				process_name        TEXT NOT NULL DEFAULT '',
				role                TEXT NOT NULL DEFAULT '',
				occurred_at         TEXT NOT NULL,
				note                TEXT NOT NULL DEFAULT '',
				fixed               INTEGER NOT NULL DEFAULT 0,

				FOREIGN KEY(build_id) REFERENCES builds(id) ON DELETE CASCADE
			)
		`,
	},
	{
		// Crash triage priority arrived after the initial crash_logs table
		// shipped, so it lands as a column addition.
		Name: "0006_crash_logs_add_priority",
		SQL:  `ALTER TABLE crash_logs ADD COLUMN priority TEXT NOT NULL DEFAULT 'medium'`,
	},
}

// Migrate applies all migration steps not yet recorded in schema_migrations,
// in declaration order. Re-running on an up-to-date store is a no-op.
//
// Each step runs in its own transaction: the step's SQL and its ledger row
// commit together. A failure aborts that step's transaction, leaves prior
// steps committed, and surfaces as *MigrationError.
func Migrate(db *sql.DB) error {
	return applyMigrations(db, migrations)
}

// applyMigrations is the ledger-driven core of Migrate, split out so tests
// can drive it with a custom step list.
func applyMigrations(db *sql.DB, steps []migration) error {
	applied, err := appliedSet(db)
	if err != nil {
		return err
	}

	for _, m := range steps {
		if applied[m.Name] {
			continue
		}
		if err := applyStep(db, m); err != nil {
			return &MigrationError{Step: m.Name, Err: err}
		}
	}

	return nil
}

// applyStep runs one migration step and its ledger insert atomically.
func applyStep(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
		m.Name, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("record step: %w", err)
	}

	return tx.Commit()
}

// appliedSet reads the ledger into a set of step names.
func appliedSet(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration ledger: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migration ledger: %w", err)
	}

	return applied, nil
}

// AppliedMigrations returns the names of all applied steps in apply order.
func (s *Store) AppliedMigrations() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM schema_migrations ORDER BY applied_at ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration ledger: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migration ledger: %w", err)
	}

	if names == nil {
		names = []string{}
	}
	return names, nil
}

// EnsureIndexes creates auxiliary indexes. Uses IF NOT EXISTS throughout, so
// it is safe to call on every startup.
func EnsureIndexes(db *sql.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_schemes_project ON schemes(project_bundle_identifier)`,
		`CREATE INDEX IF NOT EXISTS idx_builds_scheme ON builds(scheme_id)`,
		`CREATE INDEX IF NOT EXISTS idx_builds_created ON builds(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_build_logs_build ON build_logs(build_id)`,
		`CREATE INDEX IF NOT EXISTS idx_crash_logs_build ON crash_logs(build_id)`,
	}

	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}

	return nil
}
