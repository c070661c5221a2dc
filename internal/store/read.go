package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grepug/xcodebuilder/internal/model"
)

// Querier is the read surface shared by *sql.DB and *sql.Tx. Read functions
// take it so callers can run them standalone or inside a ReadTx snapshot.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetProject retrieves a single project. Returns ErrNotFound if absent.
func GetProject(ctx context.Context, q Querier, bundleID string) (model.Project, error) {
	row := q.QueryRowContext(ctx, `
		SELECT bundle_identifier, name, display_name, git_repo_url, xcodeproj_name, working_directory, created_at
		FROM projects
		WHERE bundle_identifier = ?
	`, bundleID)

	p, err := scanProject(row)
	if err != nil {
		return model.Project{}, fmt.Errorf("get project %s: %w", bundleID, mapErr(err))
	}
	return p, nil
}

// ListProjects returns all projects ordered by creation time ascending,
// ties broken by insertion order. Returns an empty slice, never nil.
func ListProjects(ctx context.Context, q Querier) ([]model.Project, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT bundle_identifier, name, display_name, git_repo_url, xcodeproj_name, working_directory, created_at
		FROM projects
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// GetScheme retrieves a single scheme. Returns ErrNotFound if absent.
func GetScheme(ctx context.Context, q Querier, id string) (model.Scheme, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, project_bundle_identifier, name, platforms, display_order
		FROM schemes
		WHERE id = ?
	`, id)

	sc, err := scanScheme(row)
	if err != nil {
		return model.Scheme{}, fmt.Errorf("get scheme %s: %w", id, mapErr(err))
	}
	return sc, nil
}

// ListSchemes returns every scheme, grouped later by callers. Ordered by
// display_order, then name, then id for full determinism.
func ListSchemes(ctx context.Context, q Querier) ([]model.Scheme, error) {
	return querySchemes(ctx, q, `
		SELECT id, project_bundle_identifier, name, platforms, display_order
		FROM schemes
		ORDER BY display_order ASC, name ASC, id ASC
	`)
}

// ListSchemesForProject returns a project's schemes in display order, ties
// broken by name then id.
func ListSchemesForProject(ctx context.Context, q Querier, bundleID string) ([]model.Scheme, error) {
	return querySchemes(ctx, q, `
		SELECT id, project_bundle_identifier, name, platforms, display_order
		FROM schemes
		WHERE project_bundle_identifier = ?
		ORDER BY display_order ASC, name ASC, id ASC
	`, bundleID)
}

func querySchemes(ctx context.Context, q Querier, query string, args ...any) ([]model.Scheme, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schemes: %w", err)
	}
	defer rows.Close()

	schemes := []model.Scheme{}
	for rows.Next() {
		sc, err := scanScheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scheme: %w", err)
		}
		schemes = append(schemes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schemes: %w", err)
	}

	return schemes, nil
}

// GetBuild retrieves a single build. Returns ErrNotFound if absent.
func GetBuild(ctx context.Context, q Querier, id string) (model.Build, error) {
	row := q.QueryRowContext(ctx, buildSelect+` WHERE id = ?`, id)

	b, err := scanBuild(row)
	if err != nil {
		return model.Build{}, fmt.Errorf("get build %s: %w", id, mapErr(err))
	}
	return b, nil
}

// ListBuildsForSchemes returns builds belonging to any of the given schemes,
// most recent first (created_at DESC, insertion order breaking ties). A
// limit <= 0 means no limit. Empty scheme set yields an empty slice.
func ListBuildsForSchemes(ctx context.Context, q Querier, schemeIDs []string, limit int) ([]model.Build, error) {
	if len(schemeIDs) == 0 {
		return []model.Build{}, nil
	}

	// Build placeholder string for the IN clause.
	placeholders := make([]byte, 0, len(schemeIDs)*2-1)
	args := make([]any, 0, len(schemeIDs)+1)
	for i, id := range schemeIDs {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}

	query := buildSelect + ` WHERE scheme_id IN (` + string(placeholders) + `)
		ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := []model.Build{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}

	return builds, nil
}

// ListBuildLogs returns a build's log records oldest first.
func ListBuildLogs(ctx context.Context, q Querier, buildID string) ([]model.BuildLog, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, build_id, category, level, content, created_at
		FROM build_logs
		WHERE build_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query build logs: %w", err)
	}
	defer rows.Close()

	logs := []model.BuildLog{}
	for rows.Next() {
		var l model.BuildLog
		var category sql.NullString
		var createdAt string
		if err := rows.Scan(&l.ID, &l.BuildID, &category, &l.Level, &l.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan build log: %w", err)
		}
		l.Category = category.String
		if l.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build logs: %w", err)
	}

	return logs, nil
}

// ListCrashLogs returns a build's crash reports oldest first.
func ListCrashLogs(ctx context.Context, q Querier, buildID string) ([]model.CrashLog, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT incident_identifier, build_id, thread_name, process_name, role, occurred_at, note, fixed, priority
		FROM crash_logs
		WHERE build_id = ?
		ORDER BY occurred_at ASC, rowid ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query crash logs: %w", err)
	}
	defer rows.Close()

	crashes := []model.CrashLog{}
	for rows.Next() {
		var c model.CrashLog
		var occurredAt string
		if err := rows.Scan(
			&c.IncidentIdentifier, &c.BuildID, &c.ThreadName, &c.ProcessName,
			&c.Role, &occurredAt, &c.Note, &c.Fixed, &c.Priority,
		); err != nil {
			return nil, fmt.Errorf("scan crash log: %w", err)
		}
		var err error
		if c.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		crashes = append(crashes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crash logs: %w", err)
	}

	return crashes, nil
}

const buildSelect = `
	SELECT id, scheme_id, version_string, build_number, commit_hash, created_at,
	       start_date, end_date, export_options, status, progress,
	       device_name, os_version, memory_gb, processor
	FROM builds`

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (model.Project, error) {
	var p model.Project
	var createdAt string
	if err := s.Scan(
		&p.BundleIdentifier, &p.Name, &p.DisplayName, &p.GitRepoURL,
		&p.XcodeprojName, &p.WorkingDirectory, &createdAt,
	); err != nil {
		return model.Project{}, err
	}

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

func scanScheme(s scanner) (model.Scheme, error) {
	var sc model.Scheme
	var platforms string
	if err := s.Scan(
		&sc.ID, &sc.ProjectBundleIdentifier, &sc.Name, &platforms, &sc.DisplayOrder,
	); err != nil {
		return model.Scheme{}, err
	}

	var err error
	if sc.Platforms, err = unmarshalPlatforms(platforms); err != nil {
		return model.Scheme{}, err
	}
	return sc, nil
}

func scanBuild(s scanner) (model.Build, error) {
	var b model.Build
	var createdAt, exportOptions string
	var startDate, endDate sql.NullString
	if err := s.Scan(
		&b.ID, &b.SchemeID, &b.VersionString, &b.BuildNumber, &b.CommitHash,
		&createdAt, &startDate, &endDate, &exportOptions, &b.Status, &b.Progress,
		&b.DeviceName, &b.OSVersion, &b.MemoryGB, &b.Processor,
	); err != nil {
		return model.Build{}, err
	}

	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Build{}, err
	}
	if b.StartDate, err = parseNullTime(startDate); err != nil {
		return model.Build{}, err
	}
	if b.EndDate, err = parseNullTime(endDate); err != nil {
		return model.Build{}, err
	}
	if b.ExportOptions, err = unmarshalExportOptions(exportOptions); err != nil {
		return model.Build{}, err
	}
	return b, nil
}
