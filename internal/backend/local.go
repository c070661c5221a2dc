package backend

import (
	"context"
	"database/sql"
	"time"

	"github.com/grepug/xcodebuilder/internal/model"
	"github.com/grepug/xcodebuilder/internal/store"
)

// Local is the store-backed Backend. Constraint enforcement (uniqueness,
// foreign keys, platform immutability, cascades) lives in the store's write
// path; Local is a thin capability adapter over it.
type Local struct {
	st *store.Store
}

var _ Backend = (*Local)(nil)

// NewLocal creates a Backend over the given store.
func NewLocal(st *store.Store) *Local {
	return &Local{st: st}
}

// Atomically runs fn against a Backend whose writes land in one transaction.
// Either every write fn issues commits, or none do. Nested calls reuse the
// enclosing transaction.
func (b *Local) Atomically(ctx context.Context, fn func(Backend) error) error {
	return b.st.WriteTx(ctx, func(tx *sql.Tx) error {
		return fn(&txLocal{tx: tx})
	})
}

func (b *Local) CreateProject(ctx context.Context, p model.Project) error {
	return store.InsertProject(ctx, b.st.DB(), p)
}

func (b *Local) UpdateProject(ctx context.Context, p model.Project) error {
	return store.UpdateProject(ctx, b.st.DB(), p)
}

func (b *Local) DeleteProject(ctx context.Context, bundleID string) error {
	return store.DeleteProject(ctx, b.st.DB(), bundleID)
}

func (b *Local) CreateScheme(ctx context.Context, s model.Scheme) error {
	return store.InsertScheme(ctx, b.st.DB(), s)
}

// UpdateScheme runs inside a transaction so the platform immutability check
// and the update are indivisible.
func (b *Local) UpdateScheme(ctx context.Context, s model.Scheme) error {
	return b.st.WriteTx(ctx, func(tx *sql.Tx) error {
		return store.UpdateScheme(ctx, tx, s)
	})
}

func (b *Local) DeleteScheme(ctx context.Context, id string) error {
	return store.DeleteScheme(ctx, b.st.DB(), id)
}

func (b *Local) CreateBuild(ctx context.Context, bd model.Build) error {
	return store.InsertBuild(ctx, b.st.DB(), bd)
}

func (b *Local) UpdateBuildProgress(ctx context.Context, id string, status model.BuildStatus, progress float64, start, end *time.Time) error {
	return store.UpdateBuildProgress(ctx, b.st.DB(), id, status, progress, start, end)
}

func (b *Local) DeleteBuild(ctx context.Context, id string) error {
	return store.DeleteBuild(ctx, b.st.DB(), id)
}

func (b *Local) AppendBuildLog(ctx context.Context, l model.BuildLog) error {
	return store.InsertBuildLog(ctx, b.st.DB(), l)
}

func (b *Local) SaveCrashLog(ctx context.Context, c model.CrashLog) error {
	return store.InsertCrashLog(ctx, b.st.DB(), c)
}

func (b *Local) UpdateCrashLog(ctx context.Context, c model.CrashLog) error {
	return store.UpdateCrashLog(ctx, b.st.DB(), c)
}

func (b *Local) DeleteCrashLog(ctx context.Context, incidentID string) error {
	return store.DeleteCrashLog(ctx, b.st.DB(), incidentID)
}

// txLocal is the Backend handed to an Atomically callback: the same write
// surface bound to one open transaction.
type txLocal struct {
	tx *sql.Tx
}

var _ Backend = (*txLocal)(nil)

// Atomically on an already-transactional Backend reuses the open
// transaction; there is no nesting in SQLite.
func (b *txLocal) Atomically(ctx context.Context, fn func(Backend) error) error {
	return fn(b)
}

func (b *txLocal) CreateProject(ctx context.Context, p model.Project) error {
	return store.InsertProject(ctx, b.tx, p)
}

func (b *txLocal) UpdateProject(ctx context.Context, p model.Project) error {
	return store.UpdateProject(ctx, b.tx, p)
}

func (b *txLocal) DeleteProject(ctx context.Context, bundleID string) error {
	return store.DeleteProject(ctx, b.tx, bundleID)
}

func (b *txLocal) CreateScheme(ctx context.Context, s model.Scheme) error {
	return store.InsertScheme(ctx, b.tx, s)
}

func (b *txLocal) UpdateScheme(ctx context.Context, s model.Scheme) error {
	return store.UpdateScheme(ctx, b.tx, s)
}

func (b *txLocal) DeleteScheme(ctx context.Context, id string) error {
	return store.DeleteScheme(ctx, b.tx, id)
}

func (b *txLocal) CreateBuild(ctx context.Context, bd model.Build) error {
	return store.InsertBuild(ctx, b.tx, bd)
}

func (b *txLocal) UpdateBuildProgress(ctx context.Context, id string, status model.BuildStatus, progress float64, start, end *time.Time) error {
	return store.UpdateBuildProgress(ctx, b.tx, id, status, progress, start, end)
}

func (b *txLocal) DeleteBuild(ctx context.Context, id string) error {
	return store.DeleteBuild(ctx, b.tx, id)
}

func (b *txLocal) AppendBuildLog(ctx context.Context, l model.BuildLog) error {
	return store.InsertBuildLog(ctx, b.tx, l)
}

func (b *txLocal) SaveCrashLog(ctx context.Context, c model.CrashLog) error {
	return store.InsertCrashLog(ctx, b.tx, c)
}

func (b *txLocal) UpdateCrashLog(ctx context.Context, c model.CrashLog) error {
	return store.UpdateCrashLog(ctx, b.tx, c)
}

func (b *txLocal) DeleteCrashLog(ctx context.Context, incidentID string) error {
	return store.DeleteCrashLog(ctx, b.tx, incidentID)
}
