package query

import (
	"context"
	"fmt"

	"github.com/grepug/xcodebuilder/internal/keycache"
)

// Fetcher adapts the projection layer to the key-cache's Fetcher interface.
// Each key kind maps 1:1 to a projection operation.
//
// Value types by kind:
//
//	allProjectIds         []string
//	project               *model.Project (nil when absent)
//	schemeIds             []string
//	latestBuilds          []model.Build
//	projectVersionStrings []ProjectVersions
//	projectDetail         *ProjectDetail (nil when absent)
//
// Absence of a project is a valid result, not an error, so those kinds
// cache a nil pointer rather than failing the load.
type Fetcher struct {
	q *Queries
}

// NewFetcher wraps a Queries as a keycache.Fetcher.
func NewFetcher(q *Queries) *Fetcher {
	return &Fetcher{q: q}
}

// Fetch resolves one key against the projection layer.
func (f *Fetcher) Fetch(ctx context.Context, key keycache.Key) (any, error) {
	switch key.Kind {
	case keycache.KindAllProjectIDs:
		return f.q.AllProjectIDs(ctx)

	case keycache.KindProject:
		p, ok, err := f.q.Project(ctx, key.ProjectID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return &p, nil

	case keycache.KindSchemeIDs:
		return f.q.SchemeIDs(ctx, key.ProjectID)

	case keycache.KindLatestBuilds:
		return f.q.LatestBuilds(ctx, key.ProjectID, key.Limit)

	case keycache.KindProjectVersionStrings:
		return f.q.LatestVersionsPerProject(ctx)

	case keycache.KindProjectDetail:
		detail, ok, err := f.q.ProjectDetail(ctx, key.ProjectID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return &detail, nil

	default:
		return nil, fmt.Errorf("unknown query key kind %q", key.Kind)
	}
}
