// Package keycache is a backend-agnostic reactive read cache.
//
// Consumers identify a query by a typed Key (query kind + parameters), ask
// the cache to Load it, and read the last materialized value synchronously
// through a Subscription. The cache is decoupled from where the data lives:
// anything implementing Fetcher can satisfy the keys, so a remote service
// can stand in for the local store without touching consumers.
//
// # Concurrency contract
//
//   - Load is asynchronous and never blocks the caller.
//   - Concurrent Loads for an identical key never produce a torn value: the
//     most recently issued load wins, readers see either the old value or
//     the new one.
//   - A failed load reports the error to the caller and leaves the previous
//     cached value in place.
//   - There is no cross-key transaction; a consumer needing a consistent
//     multi-table snapshot composes one projection that reads everything in
//     a single store transaction.
package keycache

import "fmt"

// Kind names a query in the key surface. Each kind maps 1:1 to a projection
// operation.
type Kind string

const (
	KindAllProjectIDs         Kind = "allProjectIds"
	KindProject               Kind = "project"
	KindSchemeIDs             Kind = "schemeIds"
	KindLatestBuilds          Kind = "latestBuilds"
	KindProjectVersionStrings Kind = "projectVersionStrings"
	KindProjectDetail         Kind = "projectDetail"
)

// Key identifies a query plus its parameters. Keys are comparable; two keys
// are the same cache slot iff kind and all parameters match.
type Key struct {
	Kind      Kind
	ProjectID string
	Limit     int
}

// AllProjectIDs keys the list of every project's bundle identifier.
func AllProjectIDs() Key { return Key{Kind: KindAllProjectIDs} }

// Project keys a single project lookup.
func Project(bundleID string) Key {
	return Key{Kind: KindProject, ProjectID: bundleID}
}

// SchemeIDs keys a project's ordered scheme id list.
func SchemeIDs(bundleID string) Key {
	return Key{Kind: KindSchemeIDs, ProjectID: bundleID}
}

// LatestBuilds keys a project's most recent builds, truncated to limit.
func LatestBuilds(bundleID string, limit int) Key {
	return Key{Kind: KindLatestBuilds, ProjectID: bundleID, Limit: limit}
}

// ProjectVersionStrings keys the per-project deduplicated version history.
func ProjectVersionStrings() Key { return Key{Kind: KindProjectVersionStrings} }

// ProjectDetail keys the full detail aggregate for one project.
func ProjectDetail(bundleID string) Key {
	return Key{Kind: KindProjectDetail, ProjectID: bundleID}
}

// String renders the key for logs and errors.
func (k Key) String() string {
	switch k.Kind {
	case KindAllProjectIDs, KindProjectVersionStrings:
		return string(k.Kind)
	case KindLatestBuilds:
		return fmt.Sprintf("%s(%s, limit=%d)", k.Kind, k.ProjectID, k.Limit)
	default:
		return fmt.Sprintf("%s(%s)", k.Kind, k.ProjectID)
	}
}
