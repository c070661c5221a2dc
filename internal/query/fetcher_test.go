package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepug/xcodebuilder/internal/keycache"
	"github.com/grepug/xcodebuilder/internal/model"
)

func TestFetcher_ResolvesEveryKind(t *testing.T) {
	q, s := newQueries(t)
	ctx := context.Background()
	f := NewFetcher(q)

	seedProject(t, s, "com.example.app", baseTime)
	seedScheme(t, s, "s1", "com.example.app", 0)
	seedBuild(t, s, "b1", "s1", "1.0", baseTime.Add(time.Hour))

	v, err := f.Fetch(ctx, keycache.AllProjectIDs())
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.app"}, v)

	v, err = f.Fetch(ctx, keycache.Project("com.example.app"))
	require.NoError(t, err)
	p, ok := v.(*model.Project)
	require.True(t, ok, "project kind yields *model.Project, got %T", v)
	assert.Equal(t, "com.example.app", p.BundleIdentifier)

	v, err = f.Fetch(ctx, keycache.SchemeIDs("com.example.app"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, v)

	v, err = f.Fetch(ctx, keycache.LatestBuilds("com.example.app", 5))
	require.NoError(t, err)
	builds, ok := v.([]model.Build)
	require.True(t, ok, "latestBuilds kind yields []model.Build, got %T", v)
	require.Len(t, builds, 1)
	assert.Equal(t, "b1", builds[0].ID)

	v, err = f.Fetch(ctx, keycache.ProjectVersionStrings())
	require.NoError(t, err)
	versions, ok := v.([]ProjectVersions)
	require.True(t, ok, "versions kind yields []ProjectVersions, got %T", v)
	require.Len(t, versions, 1)
	assert.Equal(t, []string{"1.0"}, versions[0].Versions)

	v, err = f.Fetch(ctx, keycache.ProjectDetail("com.example.app"))
	require.NoError(t, err)
	detail, ok := v.(*ProjectDetail)
	require.True(t, ok, "detail kind yields *ProjectDetail, got %T", v)
	assert.Len(t, detail.Builds, 1)
}

func TestFetcher_AbsentProjectIsNilNotError(t *testing.T) {
	q, _ := newQueries(t)
	ctx := context.Background()
	f := NewFetcher(q)

	v, err := f.Fetch(ctx, keycache.Project("com.missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = f.Fetch(ctx, keycache.ProjectDetail("com.missing"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestFetcher_UnknownKind(t *testing.T) {
	q, _ := newQueries(t)
	f := NewFetcher(q)

	_, err := f.Fetch(context.Background(), keycache.Key{Kind: "bogus"})
	assert.Error(t, err)
}
