package query

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepug/xcodebuilder/internal/model"
	"github.com/grepug/xcodebuilder/internal/store"
	"github.com/grepug/xcodebuilder/internal/testutil"
)

var baseTime = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func TestAllProjects_ZeroSchemeProjectAppears(t *testing.T) {
	q, s := newQueries(t)
	ctx := context.Background()

	seedProject(t, s, "com.example.alpha", baseTime)
	seedProject(t, s, "com.example.empty", baseTime.Add(time.Hour))
	seedScheme(t, s, "s1", "com.example.alpha", 0)

	list, err := q.AllProjects(ctx)
	require.NoError(t, err)

	require.Len(t, list.Projects, 2)
	assert.Equal(t, "com.example.alpha", list.Projects[0].BundleIdentifier)
	assert.Equal(t, "com.example.empty", list.Projects[1].BundleIdentifier)

	empty, ok := list.Schemes["com.example.empty"]
	require.True(t, ok, "zero-scheme project missing from scheme map")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.Len(t, list.Schemes["com.example.alpha"], 1)
}

func TestAllProjects_SchemeOrdering(t *testing.T) {
	q, s := newQueries(t)
	ctx := context.Background()

	seedProject(t, s, "com.example.app", baseTime)
	// Same display order: name decides under collation, then id.
	seedNamedScheme(t, s, "s-z", "com.example.app", "zeta", 1)
	seedNamedScheme(t, s, "s-u", "com.example.app", "Überbuild", 1)
	seedNamedScheme(t, s, "s-first", "com.example.app", "anything", 0)

	list, err := q.AllProjects(ctx)
	require.NoError(t, err)

	got := list.Schemes["com.example.app"]
	require.Len(t, got, 3)
	assert.Equal(t, "s-first", got[0].ID)
	// Collated comparison puts Ü before z; byte order would not.
	assert.Equal(t, "s-u", got[1].ID)
	assert.Equal(t, "s-z", got[2].ID)
}

func TestProjectDetail(t *testing.T) {
	q, s := newQueries(t)
	ctx := context.Background()

	seedProject(t, s, "com.example.app", baseTime)
	seedScheme(t, s, "s1", "com.example.app", 0)
	seedScheme(t, s, "s2", "com.example.app", 1)
	seedBuild(t, s, "b-old", "s1", "1.0.0", baseTime.Add(time.Hour))
	seedBuild(t, s, "b-new", "s2", "1.1.0", baseTime.Add(2*time.Hour))

	detail, ok, err := q.ProjectDetail(ctx, "com.example.app")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "com.example.app", detail.Project.BundleIdentifier)
	require.Len(t, detail.Schemes, 2)
	assert.Equal(t, "s1", detail.Schemes[0].ID)

	// Builds span schemes, most recent first.
	require.Len(t, detail.Builds, 2)
	assert.Equal(t, "b-new", detail.Builds[0].ID)
	assert.Equal(t, "b-old", detail.Builds[1].ID)
}

func TestProjectDetail_UnknownProject(t *testing.T) {
	q, _ := newQueries(t)

	detail, ok, err := q.ProjectDetail(context.Background(), "com.missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, detail.Project.BundleIdentifier)
}

func TestLatestVersionsPerProject_Dedup(t *testing.T) {
	q, s := newQueries(t)
	ctx := context.Background()

	seedProject(t, s, "com.example.app", baseTime)
	seedScheme(t, s, "s1", "com.example.app", 0)
	// Newest first by creation: 1.2, 1.1, 1.2, 1.0.
	seedBuild(t, s, "b1", "s1", "1.0", baseTime.Add(1*time.Hour))
	seedBuild(t, s, "b2", "s1", "1.2", baseTime.Add(2*time.Hour))
	seedBuild(t, s, "b3", "s1", "1.1", baseTime.Add(3*time.Hour))
	seedBuild(t, s, "b4", "s1", "1.2", baseTime.Add(4*time.Hour))

	got, err := q.LatestVersionsPerProject(ctx)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "com.example.app", got[0].BundleIdentifier)
	assert.Equal(t, []string{"1.2", "1.1", "1.0"}, got[0].Versions)
}

func TestLatestVersionsPerProject_NoBuilds(t *testing.T) {
	q, s := newQueries(t)

	seedProject(t, s, "com.example.bare", baseTime)

	got, err := q.LatestVersionsPerProject(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Versions)
	assert.Empty(t, got[0].Versions)
}

func TestLatestBuilds_Limit(t *testing.T) {
	q, s := newQueries(t)
	ctx := context.Background()
	clk := testutil.NewClock(baseTime)

	seedProject(t, s, "com.example.app", clk.Now())
	seedScheme(t, s, "s1", "com.example.app", 0)
	for _, id := range []string{"b1", "b2", "b3"} {
		seedBuild(t, s, id, "s1", "1.0", clk.Now())
	}

	builds, err := q.LatestBuilds(ctx, "com.example.app", 2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "b3", builds[0].ID)
	assert.Equal(t, "b2", builds[1].ID)
}

func TestLatestBuilds_UnknownProject(t *testing.T) {
	q, _ := newQueries(t)

	builds, err := q.LatestBuilds(context.Background(), "com.missing", 10)
	require.NoError(t, err)
	assert.NotNil(t, builds)
	assert.Empty(t, builds)
}

func TestSchemeIDs_DisplayOrder(t *testing.T) {
	q, s := newQueries(t)

	seedProject(t, s, "com.example.app", baseTime)
	seedScheme(t, s, "s-b", "com.example.app", 1)
	seedScheme(t, s, "s-a", "com.example.app", 0)
	seedScheme(t, s, "s-c", "com.example.app", 2)

	ids, err := q.SchemeIDs(context.Background(), "com.example.app")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-a", "s-b", "s-c"}, ids)
}

func TestAllProjectIDs_CreationOrder(t *testing.T) {
	q, s := newQueries(t)

	seedProject(t, s, "com.example.later", baseTime.Add(time.Hour))
	seedProject(t, s, "com.example.earlier", baseTime)

	ids, err := q.AllProjectIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.earlier", "com.example.later"}, ids)
}

func TestProjections_ConcurrentWithWrites(t *testing.T) {
	q, s := newQueries(t)
	ctx := context.Background()

	seedProject(t, s, "com.example.app", baseTime)
	seedScheme(t, s, "s1", "com.example.app", 0)

	const writes = 25
	done := make(chan error, 1)
	go func() {
		for i := 0; i < writes; i++ {
			err := store.InsertBuild(ctx, s.DB(), model.Build{
				ID:            fmt.Sprintf("b%03d", i),
				SchemeID:      "s1",
				VersionString: "1.0",
				BuildNumber:   i,
				CommitHash:    "abc1234",
				CreatedAt:     baseTime.Add(time.Duration(i) * time.Second),
				Status:        model.StatusQueued,
			})
			if err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	// Each projection runs against one snapshot, so a reader overlapping the
	// writer sees a consistent prefix: counts only grow and every read is
	// internally ordered.
	prev := 0
	for {
		builds, err := q.LatestBuilds(ctx, "com.example.app", 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(builds), prev)
		prev = len(builds)
		for i := 1; i < len(builds); i++ {
			require.False(t, builds[i-1].CreatedAt.Before(builds[i].CreatedAt),
				"snapshot not newest-first at %d", i)
		}

		select {
		case err := <-done:
			require.NoError(t, err)
			builds, err := q.LatestBuilds(ctx, "com.example.app", 0)
			require.NoError(t, err)
			require.Len(t, builds, writes)
			return
		default:
		}
	}
}

func TestProject_CommaOk(t *testing.T) {
	q, s := newQueries(t)
	ctx := context.Background()

	seedProject(t, s, "com.example.app", baseTime)

	p, ok, err := q.Project(ctx, "com.example.app")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "com.example.app", p.BundleIdentifier)

	_, ok, err = q.Project(ctx, "com.missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func newQueries(t *testing.T) (*Queries, *store.Store) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func seedProject(t *testing.T, s *store.Store, bundleID string, createdAt time.Time) {
	t.Helper()
	err := store.InsertProject(context.Background(), s.DB(), model.Project{
		BundleIdentifier: bundleID,
		Name:             "App",
		DisplayName:      "App Display",
		GitRepoURL:       "https://example.com/app.git",
		XcodeprojName:    "App.xcodeproj",
		WorkingDirectory: "/src/app",
		CreatedAt:        createdAt,
	})
	require.NoError(t, err)
}

func seedScheme(t *testing.T, s *store.Store, id, projectID string, order int) {
	t.Helper()
	seedNamedScheme(t, s, id, projectID, "Scheme-"+id, order)
}

func seedNamedScheme(t *testing.T, s *store.Store, id, projectID, name string, order int) {
	t.Helper()
	err := store.InsertScheme(context.Background(), s.DB(), model.Scheme{
		ID:                      id,
		ProjectBundleIdentifier: projectID,
		Name:                    name,
		Platforms:               []model.Platform{model.PlatformIOS},
		DisplayOrder:            order,
	})
	require.NoError(t, err)
}

func seedBuild(t *testing.T, s *store.Store, id, schemeID, version string, createdAt time.Time) {
	t.Helper()
	err := store.InsertBuild(context.Background(), s.DB(), model.Build{
		ID:            id,
		SchemeID:      schemeID,
		VersionString: version,
		BuildNumber:   1,
		CommitHash:    "abc1234",
		CreatedAt:     createdAt,
		ExportOptions: []string{"app-store"},
		Status:        model.StatusQueued,
		DeviceName:    "Mac Studio",
		OSVersion:     "15.2",
		MemoryGB:      64,
		Processor:     "Apple M2 Ultra",
	})
	require.NoError(t, err)
}
