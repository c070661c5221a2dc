// Package backend defines the write-capability interface the rest of the
// application depends on, independent of storage technology.
//
// The local SQLite-backed implementation lives here; a remote build-service
// implementation satisfies the same interface elsewhere. Consumers never
// assume which one is active, and construction is explicit: the active
// Backend is passed in, never pulled from an ambient global.
package backend

import (
	"context"
	"time"

	"github.com/grepug/xcodebuilder/internal/model"
)

// Backend exposes create/update/delete operations for every entity. Reads
// go through the projection layer, not through Backend.
type Backend interface {
	// Atomically runs fn against a Backend whose writes all commit together
	// or not at all. Multi-entity sequences (a project with its schemes and
	// builds) go through here so a mid-sequence failure leaves no partial
	// rows behind.
	Atomically(ctx context.Context, fn func(Backend) error) error

	CreateProject(ctx context.Context, p model.Project) error
	UpdateProject(ctx context.Context, p model.Project) error
	DeleteProject(ctx context.Context, bundleID string) error

	CreateScheme(ctx context.Context, s model.Scheme) error
	UpdateScheme(ctx context.Context, s model.Scheme) error
	DeleteScheme(ctx context.Context, id string) error

	CreateBuild(ctx context.Context, b model.Build) error
	UpdateBuildProgress(ctx context.Context, id string, status model.BuildStatus, progress float64, start, end *time.Time) error
	DeleteBuild(ctx context.Context, id string) error

	AppendBuildLog(ctx context.Context, l model.BuildLog) error

	SaveCrashLog(ctx context.Context, c model.CrashLog) error
	UpdateCrashLog(ctx context.Context, c model.CrashLog) error
	DeleteCrashLog(ctx context.Context, incidentID string) error
}
