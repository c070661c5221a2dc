package store

import (
	"context"
	"testing"
	"time"

	"github.com/grepug/xcodebuilder/internal/model"
)

var baseTime = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func testProject(bundleID string, createdAt time.Time) model.Project {
	return model.Project{
		BundleIdentifier: bundleID,
		Name:             "App",
		DisplayName:      "App Display",
		GitRepoURL:       "https://example.com/app.git",
		XcodeprojName:    "App.xcodeproj",
		WorkingDirectory: "/src/app",
		CreatedAt:        createdAt,
	}
}

func testScheme(id, projectID string, order int) model.Scheme {
	return model.Scheme{
		ID:                      id,
		ProjectBundleIdentifier: projectID,
		Name:                    "Scheme-" + id,
		Platforms:               []model.Platform{model.PlatformIOS},
		DisplayOrder:            order,
	}
}

func testBuild(id, schemeID, version string, createdAt time.Time) model.Build {
	return model.Build{
		ID:            id,
		SchemeID:      schemeID,
		VersionString: version,
		BuildNumber:   1,
		CommitHash:    "abc1234",
		CreatedAt:     createdAt,
		ExportOptions: []string{"app-store"},
		Status:        model.StatusQueued,
		Progress:      0,
		DeviceName:    "Mac Studio",
		OSVersion:     "15.2",
		MemoryGB:      64,
		Processor:     "Apple M2 Ultra",
	}
}

func testBuildLog(id, buildID string, createdAt time.Time) model.BuildLog {
	return model.BuildLog{
		ID:        id,
		BuildID:   buildID,
		Category:  "compile",
		Level:     model.LevelInfo,
		Content:   "log line",
		CreatedAt: createdAt,
	}
}

func testCrashLog(incidentID, buildID string, occurredAt time.Time) model.CrashLog {
	return model.CrashLog{
		IncidentIdentifier: incidentID,
		BuildID:            buildID,
		ThreadName:         "main",
		ProcessName:        "App",
		Role:               "Foreground",
		OccurredAt:         occurredAt,
		Note:               "",
		Fixed:              false,
		Priority:           model.PriorityHigh,
	}
}

// mustInsertChain inserts a project, a scheme and a build in one go.
func mustInsertChain(t *testing.T, s *Store, projectID, schemeID, buildID string) {
	t.Helper()
	ctx := context.Background()

	if err := InsertProject(ctx, s.db, testProject(projectID, baseTime)); err != nil {
		t.Fatalf("insert project: %v", err)
	}
	if err := InsertScheme(ctx, s.db, testScheme(schemeID, projectID, 0)); err != nil {
		t.Fatalf("insert scheme: %v", err)
	}
	if err := InsertBuild(ctx, s.db, testBuild(buildID, schemeID, "1.0.0", baseTime.Add(time.Hour))); err != nil {
		t.Fatalf("insert build: %v", err)
	}
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
