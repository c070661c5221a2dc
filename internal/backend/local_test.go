package backend_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepug/xcodebuilder/internal/backend"
	"github.com/grepug/xcodebuilder/internal/model"
	"github.com/grepug/xcodebuilder/internal/query"
	"github.com/grepug/xcodebuilder/internal/store"
)

var baseTime = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

// The full entity lifecycle driven through the Backend interface alone, read
// back through the projection layer.
func TestLocal_Lifecycle(t *testing.T) {
	b, q := newLocal(t)
	ctx := context.Background()

	require.NoError(t, b.CreateProject(ctx, model.Project{
		BundleIdentifier: "com.example.app",
		Name:             "App",
		DisplayName:      "App",
		GitRepoURL:       "https://example.com/app.git",
		XcodeprojName:    "App.xcodeproj",
		WorkingDirectory: "/src/app",
		CreatedAt:        baseTime,
	}))
	require.NoError(t, b.CreateScheme(ctx, model.Scheme{
		ID:                      "s1",
		ProjectBundleIdentifier: "com.example.app",
		Name:                    "Release",
		Platforms:               []model.Platform{model.PlatformIOS},
	}))
	require.NoError(t, b.CreateBuild(ctx, model.Build{
		ID:            "b1",
		SchemeID:      "s1",
		VersionString: "1.0.0",
		BuildNumber:   1,
		CommitHash:    "abc1234",
		CreatedAt:     baseTime.Add(time.Hour),
		ExportOptions: []string{"app-store"},
		Status:        model.StatusQueued,
		DeviceName:    "Mac Studio",
		OSVersion:     "15.2",
		MemoryGB:      64,
		Processor:     "Apple M2 Ultra",
	}))
	require.NoError(t, b.AppendBuildLog(ctx, model.BuildLog{
		ID:        "l1",
		BuildID:   "b1",
		Category:  "compile",
		Level:     model.LevelInfo,
		Content:   "started",
		CreatedAt: baseTime.Add(time.Hour),
	}))
	require.NoError(t, b.SaveCrashLog(ctx, model.CrashLog{
		IncidentIdentifier: "INC-1",
		BuildID:            "b1",
		ThreadName:         "main",
		ProcessName:        "App",
		Role:               "Foreground",
		OccurredAt:         baseTime.Add(2 * time.Hour),
		Priority:           model.PriorityMedium,
	}))

	start := baseTime.Add(time.Hour)
	require.NoError(t, b.UpdateBuildProgress(ctx, "b1", model.StatusRunning, 0.4, &start, nil))

	detail, ok, err := q.ProjectDetail(ctx, "com.example.app")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, detail.Builds, 1)
	assert.Equal(t, model.StatusRunning, detail.Builds[0].Status)
	assert.InDelta(t, 0.4, detail.Builds[0].Progress, 1e-9)

	require.NoError(t, b.DeleteProject(ctx, "com.example.app"))
	_, ok, err = q.ProjectDetail(ctx, "com.example.app")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocal_AtomicallyRollsBackOnFailure(t *testing.T) {
	b, q := newLocal(t)
	ctx := context.Background()

	project := model.Project{
		BundleIdentifier: "com.example.app",
		Name:             "App",
		DisplayName:      "App",
		GitRepoURL:       "https://example.com/app.git",
		XcodeprojName:    "App.xcodeproj",
		WorkingDirectory: "/src/app",
		CreatedAt:        baseTime,
	}

	// A constraint failure partway through discards the whole sequence.
	err := b.Atomically(ctx, func(tx backend.Backend) error {
		if err := tx.CreateProject(ctx, project); err != nil {
			return err
		}
		if err := tx.CreateScheme(ctx, model.Scheme{
			ID:                      "s1",
			ProjectBundleIdentifier: "com.example.app",
			Name:                    "Release",
			Platforms:               []model.Platform{model.PlatformIOS},
		}); err != nil {
			return err
		}
		return tx.CreateProject(ctx, project)
	})
	require.ErrorIs(t, err, store.ErrConstraint)

	ids, err := q.AllProjectIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "rows left behind after rollback")

	// The same sequence without the duplicate commits together.
	err = b.Atomically(ctx, func(tx backend.Backend) error {
		if err := tx.CreateProject(ctx, project); err != nil {
			return err
		}
		return tx.CreateScheme(ctx, model.Scheme{
			ID:                      "s1",
			ProjectBundleIdentifier: "com.example.app",
			Name:                    "Release",
			Platforms:               []model.Platform{model.PlatformIOS},
		})
	})
	require.NoError(t, err)

	detail, ok, err := q.ProjectDetail(ctx, "com.example.app")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, detail.Schemes, 1)
}

func TestLocal_SurfacesStoreErrors(t *testing.T) {
	b, _ := newLocal(t)
	ctx := context.Background()

	// Constraint and not-found sentinels pass through untranslated.
	err := b.CreateScheme(ctx, model.Scheme{
		ID:                      "s1",
		ProjectBundleIdentifier: "com.missing",
		Name:                    "Release",
		Platforms:               []model.Platform{model.PlatformIOS},
	})
	assert.ErrorIs(t, err, store.ErrConstraint)

	assert.ErrorIs(t, b.DeleteBuild(ctx, "missing"), store.ErrNotFound)
}

func newLocal(t *testing.T) (backend.Backend, *query.Queries) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return backend.NewLocal(s), query.New(s)
}
