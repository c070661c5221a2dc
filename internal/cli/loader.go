package cli

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grepug/xcodebuilder/internal/backend"
	"github.com/grepug/xcodebuilder/internal/model"
)

// Fixture is the YAML seed format: projects nesting schemes nesting builds.
// Entity fields are inlined from the model types, so a fixture reads like
// the schema.
type Fixture struct {
	Projects []FixtureProject `yaml:"projects"`
}

// FixtureProject is a project plus its schemes.
type FixtureProject struct {
	model.Project `yaml:",inline"`
	Schemes       []FixtureScheme `yaml:"schemes,omitempty"`
}

// FixtureScheme is a scheme plus its builds.
type FixtureScheme struct {
	model.Scheme `yaml:",inline"`
	Builds       []FixtureBuild `yaml:"builds,omitempty"`
}

// FixtureBuild is a build plus its logs and crash reports.
type FixtureBuild struct {
	model.Build `yaml:",inline"`
	Logs        []model.BuildLog `yaml:"logs,omitempty"`
	Crashes     []model.CrashLog `yaml:"crashes,omitempty"`
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// SeedCounts reports how many rows a fixture produced.
type SeedCounts struct {
	Projects  int `json:"projects"`
	Schemes   int `json:"schemes"`
	Builds    int `json:"builds"`
	BuildLogs int `json:"build_logs"`
	CrashLogs int `json:"crash_logs"`
}

// ApplyFixture writes a fixture through the Backend interface, generating
// ids where the fixture leaves them empty and wiring parent keys. Crash log
// incident identifiers are natural keys and must be present in the fixture.
//
// The whole fixture lands in one atomic sequence: a failure partway through
// (say a duplicate id) leaves no rows behind.
func ApplyFixture(ctx context.Context, b backend.Backend, f *Fixture, ids model.IDGenerator) (SeedCounts, error) {
	var counts SeedCounts

	err := b.Atomically(ctx, func(tx backend.Backend) error {
		for _, fp := range f.Projects {
			if err := tx.CreateProject(ctx, fp.Project); err != nil {
				return err
			}
			counts.Projects++

			for _, fs := range fp.Schemes {
				scheme := fs.Scheme
				if scheme.ID == "" {
					scheme.ID = ids.NewID()
				}
				scheme.ProjectBundleIdentifier = fp.BundleIdentifier
				if err := tx.CreateScheme(ctx, scheme); err != nil {
					return err
				}
				counts.Schemes++

				for _, fb := range fs.Builds {
					build := fb.Build
					if build.ID == "" {
						build.ID = ids.NewID()
					}
					build.SchemeID = scheme.ID
					if build.Status == "" {
						build.Status = model.StatusQueued
					}
					if err := tx.CreateBuild(ctx, build); err != nil {
						return err
					}
					counts.Builds++

					for _, log := range fb.Logs {
						if log.ID == "" {
							log.ID = ids.NewID()
						}
						log.BuildID = build.ID
						if log.Level == "" {
							log.Level = model.LevelInfo
						}
						if err := tx.AppendBuildLog(ctx, log); err != nil {
							return err
						}
						counts.BuildLogs++
					}

					for _, crash := range fb.Crashes {
						crash.BuildID = build.ID
						if crash.Priority == "" {
							crash.Priority = model.PriorityMedium
						}
						if err := tx.SaveCrashLog(ctx, crash); err != nil {
							return err
						}
						counts.CrashLogs++
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return SeedCounts{}, err
	}

	return counts, nil
}
