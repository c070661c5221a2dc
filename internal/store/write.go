package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/grepug/xcodebuilder/internal/model"
)

// Execer is the write surface shared by *sql.DB and *sql.Tx. Write functions
// take it so callers can run them standalone or compose several inside one
// WriteTx, where they all commit together or not at all.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertProject inserts a project row. The bundle identifier must be unique;
// a duplicate surfaces as ErrConstraint.
func InsertProject(ctx context.Context, e Execer, p model.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}

	_, err := e.ExecContext(ctx, `
		INSERT INTO projects
		(bundle_identifier, name, display_name, git_repo_url, xcodeproj_name, working_directory, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		p.BundleIdentifier, p.Name, p.DisplayName, p.GitRepoURL,
		p.XcodeprojName, p.WorkingDirectory, fmtTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert project %s: %w", p.BundleIdentifier, mapErr(err))
	}
	return nil
}

// UpdateProject replaces the whole project row identified by its bundle
// identifier. The identifier itself and created_at are never reassigned.
func UpdateProject(ctx context.Context, e Execer, p model.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}

	res, err := e.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, display_name = ?, git_repo_url = ?, xcodeproj_name = ?, working_directory = ?
		WHERE bundle_identifier = ?
	`,
		p.Name, p.DisplayName, p.GitRepoURL, p.XcodeprojName, p.WorkingDirectory,
		p.BundleIdentifier,
	)
	if err != nil {
		return fmt.Errorf("update project %s: %w", p.BundleIdentifier, mapErr(err))
	}
	return requireRow(res, "project", p.BundleIdentifier)
}

// DeleteProject removes a project and, via cascade, all of its schemes,
// builds, build logs and crash logs.
func DeleteProject(ctx context.Context, e Execer, bundleID string) error {
	res, err := e.ExecContext(ctx, `DELETE FROM projects WHERE bundle_identifier = ?`, bundleID)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", bundleID, mapErr(err))
	}
	return requireRow(res, "project", bundleID)
}

// InsertScheme inserts a scheme row. The platform set is fixed here for the
// lifetime of the row; see UpdateScheme.
func InsertScheme(ctx context.Context, e Execer, sc model.Scheme) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	platforms, err := marshalPlatforms(sc.Platforms)
	if err != nil {
		return err
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO schemes
		(id, project_bundle_identifier, name, platforms, display_order)
		VALUES (?, ?, ?, ?, ?)
	`,
		sc.ID, sc.ProjectBundleIdentifier, sc.Name, platforms, sc.DisplayOrder,
	)
	if err != nil {
		return fmt.Errorf("insert scheme %s: %w", sc.ID, mapErr(err))
	}
	return nil
}

// UpdateScheme replaces the editable fields of a scheme row (name and
// display order). The platform set is write-once: if the incoming set
// differs from the stored one the update fails with ErrImmutableField and
// the row is left untouched.
//
// The check and the update must be indivisible, so run this inside WriteTx
// whenever concurrent writers exist; a *sql.Tx Execer gives that for free.
func UpdateScheme(ctx context.Context, e Execer, sc model.Scheme) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	incoming, err := marshalPlatforms(sc.Platforms)
	if err != nil {
		return err
	}

	var stored string
	err = e.QueryRowContext(ctx,
		`SELECT platforms FROM schemes WHERE id = ?`, sc.ID,
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("update scheme %s: %w", sc.ID, mapErr(err))
	}

	if stored != incoming {
		return fmt.Errorf("update scheme %s: platforms: %w", sc.ID, ErrImmutableField)
	}

	_, err = e.ExecContext(ctx, `
		UPDATE schemes SET name = ?, display_order = ? WHERE id = ?
	`, sc.Name, sc.DisplayOrder, sc.ID)
	if err != nil {
		return fmt.Errorf("update scheme %s: %w", sc.ID, mapErr(err))
	}
	return nil
}

// DeleteScheme removes a scheme and cascades to its builds and their logs.
func DeleteScheme(ctx context.Context, e Execer, id string) error {
	res, err := e.ExecContext(ctx, `DELETE FROM schemes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scheme %s: %w", id, mapErr(err))
	}
	return requireRow(res, "scheme", id)
}

// InsertBuild inserts a build row. The owning scheme must exist.
func InsertBuild(ctx context.Context, e Execer, b model.Build) error {
	if err := b.Validate(); err != nil {
		return err
	}

	exportOptions, err := marshalExportOptions(b.ExportOptions)
	if err != nil {
		return err
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO builds
		(id, scheme_id, version_string, build_number, commit_hash, created_at,
		 start_date, end_date, export_options, status, progress,
		 device_name, os_version, memory_gb, processor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID, b.SchemeID, b.VersionString, b.BuildNumber, b.CommitHash,
		fmtTime(b.CreatedAt), fmtNullTime(b.StartDate), fmtNullTime(b.EndDate),
		exportOptions, string(b.Status), b.Progress,
		b.DeviceName, b.OSVersion, b.MemoryGB, b.Processor,
	)
	if err != nil {
		return fmt.Errorf("insert build %s: %w", b.ID, mapErr(err))
	}
	return nil
}

// UpdateBuildProgress mutates the only in-place fields a build has: status,
// progress and the start/end dates. Everything else is fixed at creation.
func UpdateBuildProgress(ctx context.Context, e Execer, id string, status model.BuildStatus, progress float64, start, end *time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("update build %s: invalid status %q", id, status)
	}
	if math.IsNaN(progress) || progress < 0 || progress > 1 {
		return fmt.Errorf("update build %s: progress %v out of range [0,1]", id, progress)
	}

	res, err := e.ExecContext(ctx, `
		UPDATE builds SET status = ?, progress = ?, start_date = ?, end_date = ?
		WHERE id = ?
	`, string(status), progress, fmtNullTime(start), fmtNullTime(end), id)
	if err != nil {
		return fmt.Errorf("update build %s: %w", id, mapErr(err))
	}
	return requireRow(res, "build", id)
}

// DeleteBuild removes a build and cascades to its logs and crash reports.
func DeleteBuild(ctx context.Context, e Execer, id string) error {
	res, err := e.ExecContext(ctx, `DELETE FROM builds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete build %s: %w", id, mapErr(err))
	}
	return requireRow(res, "build", id)
}

// InsertBuildLog appends a log record to a build. Build logs are append-only;
// they are only removed by cascade when their build goes away.
func InsertBuildLog(ctx context.Context, e Execer, l model.BuildLog) error {
	if err := l.Validate(); err != nil {
		return err
	}

	category := sql.NullString{String: l.Category, Valid: l.Category != ""}
	_, err := e.ExecContext(ctx, `
		INSERT INTO build_logs (id, build_id, category, level, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ID, l.BuildID, category, string(l.Level), l.Content, fmtTime(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert build log %s: %w", l.ID, mapErr(err))
	}
	return nil
}

// InsertCrashLog inserts a crash report keyed by its natural incident
// identifier. A duplicate incident surfaces as ErrConstraint.
func InsertCrashLog(ctx context.Context, e Execer, c model.CrashLog) error {
	if err := c.Validate(); err != nil {
		return err
	}

	_, err := e.ExecContext(ctx, `
		INSERT INTO crash_logs
		(incident_identifier, build_id, thread_name, process_name, role, occurred_at, note, fixed, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.IncidentIdentifier, c.BuildID, c.ThreadName, c.ProcessName, c.Role,
		fmtTime(c.OccurredAt), c.Note, c.Fixed, string(c.Priority),
	)
	if err != nil {
		return fmt.Errorf("insert crash log %s: %w", c.IncidentIdentifier, mapErr(err))
	}
	return nil
}

// UpdateCrashLog replaces the whole crash log row identified by its incident
// identifier. Used for triage edits (note, fixed, priority).
func UpdateCrashLog(ctx context.Context, e Execer, c model.CrashLog) error {
	if err := c.Validate(); err != nil {
		return err
	}

	res, err := e.ExecContext(ctx, `
		UPDATE crash_logs
		SET build_id = ?, thread_name = ?, process_name = ?, role = ?,
		    occurred_at = ?, note = ?, fixed = ?, priority = ?
		WHERE incident_identifier = ?
	`,
		c.BuildID, c.ThreadName, c.ProcessName, c.Role,
		fmtTime(c.OccurredAt), c.Note, c.Fixed, string(c.Priority),
		c.IncidentIdentifier,
	)
	if err != nil {
		return fmt.Errorf("update crash log %s: %w", c.IncidentIdentifier, mapErr(err))
	}
	return requireRow(res, "crash log", c.IncidentIdentifier)
}

// DeleteCrashLog removes a crash report.
func DeleteCrashLog(ctx context.Context, e Execer, incidentID string) error {
	res, err := e.ExecContext(ctx, `DELETE FROM crash_logs WHERE incident_identifier = ?`, incidentID)
	if err != nil {
		return fmt.Errorf("delete crash log %s: %w", incidentID, mapErr(err))
	}
	return requireRow(res, "crash log", incidentID)
}

// requireRow converts a zero-row write into ErrNotFound.
func requireRow(res sql.Result, entity, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", entity, key, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, key, ErrNotFound)
	}
	return nil
}
