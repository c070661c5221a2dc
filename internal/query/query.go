// Package query computes derived, read-only views over the relational store.
//
// Every operation runs inside a single read transaction, so it observes one
// consistent snapshot of the store regardless of concurrent writes. Results
// are plain values; nothing here is persisted.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grepug/xcodebuilder/internal/model"
	"github.com/grepug/xcodebuilder/internal/store"
)

// Queries exposes the projection operations over one store.
type Queries struct {
	st *store.Store
}

// New creates a Queries bound to the given store.
func New(st *store.Store) *Queries {
	return &Queries{st: st}
}

// ProjectList maps every project to its ordered schemes. Projects with zero
// schemes are present with an empty list.
type ProjectList struct {
	// Projects ordered by created_at ascending, insertion order on ties.
	Projects []model.Project `json:"projects"`
	// Schemes keyed by bundle identifier, each list in display order.
	Schemes map[string][]model.Scheme `json:"schemes"`
}

// ProjectDetail aggregates one project with its schemes and every build
// under any of those schemes.
type ProjectDetail struct {
	Project model.Project  `json:"project"`
	Schemes []model.Scheme `json:"schemes"`
	// Builds across all schemes, most recent first.
	Builds []model.Build `json:"builds"`
}

// ProjectVersions is the deduplicated version history of one project.
type ProjectVersions struct {
	BundleIdentifier string `json:"bundle_identifier"`
	// Versions in most-recent-first order of first occurrence, no duplicates.
	Versions []string `json:"versions"`
}

// AllProjects returns every project with its schemes grouped by project key.
//
// The scan is deliberately two-phased: all projects first, then all schemes
// grouped in memory, so a project with zero schemes still appears (an inner
// join would drop it).
func (q *Queries) AllProjects(ctx context.Context) (ProjectList, error) {
	var list ProjectList
	err := q.st.ReadTx(ctx, func(tx *sql.Tx) error {
		projects, err := store.ListProjects(ctx, tx)
		if err != nil {
			return err
		}

		schemes, err := store.ListSchemes(ctx, tx)
		if err != nil {
			return err
		}

		grouped := make(map[string][]model.Scheme, len(projects))
		for _, p := range projects {
			grouped[p.BundleIdentifier] = []model.Scheme{}
		}
		for _, sc := range schemes {
			grouped[sc.ProjectBundleIdentifier] = append(grouped[sc.ProjectBundleIdentifier], sc)
		}
		for id := range grouped {
			sortSchemes(grouped[id])
		}

		list = ProjectList{Projects: projects, Schemes: grouped}
		return nil
	})
	if err != nil {
		return ProjectList{}, fmt.Errorf("all projects: %w", err)
	}
	return list, nil
}

// ProjectDetail returns the project, its schemes in display order, and all
// builds under any of those schemes. An unknown id is a valid outcome, not
// an error: ok is false and err is nil.
func (q *Queries) ProjectDetail(ctx context.Context, bundleID string) (ProjectDetail, bool, error) {
	var detail ProjectDetail
	found := false
	err := q.st.ReadTx(ctx, func(tx *sql.Tx) error {
		p, err := store.GetProject(ctx, tx, bundleID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		schemes, err := store.ListSchemesForProject(ctx, tx, bundleID)
		if err != nil {
			return err
		}
		sortSchemes(schemes)

		builds, err := store.ListBuildsForSchemes(ctx, tx, schemeIDsOf(schemes), 0)
		if err != nil {
			return err
		}

		detail = ProjectDetail{Project: p, Schemes: schemes, Builds: builds}
		found = true
		return nil
	})
	if err != nil {
		return ProjectDetail{}, false, fmt.Errorf("project detail %s: %w", bundleID, err)
	}
	return detail, found, nil
}

// LatestVersionsPerProject computes, for every project in creation order,
// the distinct version strings across all of its builds, most recent first.
//
// Builds are fetched newest-first and folded through a seen-set, so each
// version keeps its first (most recent) position and duplicates drop out.
func (q *Queries) LatestVersionsPerProject(ctx context.Context) ([]ProjectVersions, error) {
	var result []ProjectVersions
	err := q.st.ReadTx(ctx, func(tx *sql.Tx) error {
		projects, err := store.ListProjects(ctx, tx)
		if err != nil {
			return err
		}

		schemes, err := store.ListSchemes(ctx, tx)
		if err != nil {
			return err
		}
		byProject := make(map[string][]string)
		for _, sc := range schemes {
			byProject[sc.ProjectBundleIdentifier] = append(byProject[sc.ProjectBundleIdentifier], sc.ID)
		}

		result = make([]ProjectVersions, 0, len(projects))
		for _, p := range projects {
			builds, err := store.ListBuildsForSchemes(ctx, tx, byProject[p.BundleIdentifier], 0)
			if err != nil {
				return err
			}

			versions := []string{}
			seen := make(map[string]bool)
			for _, b := range builds {
				if seen[b.VersionString] {
					continue
				}
				seen[b.VersionString] = true
				versions = append(versions, b.VersionString)
			}

			result = append(result, ProjectVersions{
				BundleIdentifier: p.BundleIdentifier,
				Versions:         versions,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("latest versions: %w", err)
	}
	return result, nil
}

// LatestBuilds returns the most recent builds across all of a project's
// schemes, truncated to limit. An unknown project yields an empty slice.
func (q *Queries) LatestBuilds(ctx context.Context, bundleID string, limit int) ([]model.Build, error) {
	var builds []model.Build
	err := q.st.ReadTx(ctx, func(tx *sql.Tx) error {
		schemes, err := store.ListSchemesForProject(ctx, tx, bundleID)
		if err != nil {
			return err
		}

		builds, err = store.ListBuildsForSchemes(ctx, tx, schemeIDsOf(schemes), limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("latest builds %s: %w", bundleID, err)
	}
	return builds, nil
}

// SchemeIDs returns a project's scheme ids in display order, matching the
// order schemes are shown when building.
func (q *Queries) SchemeIDs(ctx context.Context, bundleID string) ([]string, error) {
	var ids []string
	err := q.st.ReadTx(ctx, func(tx *sql.Tx) error {
		schemes, err := store.ListSchemesForProject(ctx, tx, bundleID)
		if err != nil {
			return err
		}
		sortSchemes(schemes)
		ids = schemeIDsOf(schemes)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scheme ids %s: %w", bundleID, err)
	}
	return ids, nil
}

// AllProjectIDs returns every project's bundle identifier in creation order.
func (q *Queries) AllProjectIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := q.st.ReadTx(ctx, func(tx *sql.Tx) error {
		projects, err := store.ListProjects(ctx, tx)
		if err != nil {
			return err
		}
		ids = make([]string, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.BundleIdentifier)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("all project ids: %w", err)
	}
	return ids, nil
}

// Project returns a single project by bundle identifier. Absence is a valid
// outcome: ok is false, err is nil.
func (q *Queries) Project(ctx context.Context, bundleID string) (model.Project, bool, error) {
	var p model.Project
	found := false
	err := q.st.ReadTx(ctx, func(tx *sql.Tx) error {
		got, err := store.GetProject(ctx, tx, bundleID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		p = got
		found = true
		return nil
	})
	if err != nil {
		return model.Project{}, false, fmt.Errorf("project %s: %w", bundleID, err)
	}
	return p, found, nil
}

func schemeIDsOf(schemes []model.Scheme) []string {
	ids := make([]string, 0, len(schemes))
	for _, sc := range schemes {
		ids = append(ids, sc.ID)
	}
	return ids
}
