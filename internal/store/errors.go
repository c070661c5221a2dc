package store

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Sentinel errors for the store's failure taxonomy. Callers match them with
// errors.Is; wrapped messages carry the entity and key.
var (
	// ErrNotFound means the requested row does not exist. For reads this is
	// a normal, expected outcome, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrImmutableField means a write tried to change a write-once field
	// (schemes.platforms). The row is left unchanged.
	ErrImmutableField = errors.New("immutable field violation")

	// ErrConstraint means a uniqueness or foreign-key constraint rejected a
	// write. The enclosing transaction is rolled back entirely.
	ErrConstraint = errors.New("constraint violation")
)

// MigrationError reports a migration step that failed. The store is left at
// the last successfully applied step; the failed step's transaction was
// rolled back in full.
type MigrationError struct {
	Step string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s failed: %v", e.Step, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// mapErr translates driver-level errors into the store's taxonomy.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
