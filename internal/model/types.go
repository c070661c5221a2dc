package model

import (
	"fmt"
	"math"
	"time"
)

// Platform identifies a build target platform for a scheme.
type Platform string

const (
	PlatformIOS      Platform = "iOS"
	PlatformMacOS    Platform = "macOS"
	PlatformTVOS     Platform = "tvOS"
	PlatformWatchOS  Platform = "watchOS"
	PlatformVisionOS Platform = "visionOS"
)

// BuildStatus tracks a build through its lifecycle.
type BuildStatus string

const (
	StatusQueued    BuildStatus = "queued"
	StatusRunning   BuildStatus = "running"
	StatusCompleted BuildStatus = "completed"
	StatusFailed    BuildStatus = "failed"
	StatusCancelled BuildStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s BuildStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the build can no longer change state.
func (s BuildStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// LogLevel is the severity of a build log line.
type LogLevel string

const (
	LevelDebug   LogLevel = "debug"
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
	LevelFault   LogLevel = "fault"
)

// Valid reports whether the level is one of the known values.
func (l LogLevel) Valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelFault:
		return true
	}
	return false
}

// CrashPriority is the triage priority assigned to a crash log.
type CrashPriority string

const (
	PriorityLow      CrashPriority = "low"
	PriorityMedium   CrashPriority = "medium"
	PriorityHigh     CrashPriority = "high"
	PriorityCritical CrashPriority = "critical"
)

// Valid reports whether the priority is one of the known values.
func (p CrashPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Project is a registered software project. The bundle identifier is the
// primary key and is never reassigned once created.
type Project struct {
	BundleIdentifier string    `json:"bundle_identifier" yaml:"bundle_identifier"`
	Name             string    `json:"name" yaml:"name"`
	DisplayName      string    `json:"display_name" yaml:"display_name"`
	GitRepoURL       string    `json:"git_repo_url" yaml:"git_repo_url"`
	XcodeprojName    string    `json:"xcodeproj_name" yaml:"xcodeproj_name"`
	WorkingDirectory string    `json:"working_directory" yaml:"working_directory"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}

// Validate checks required fields before a write.
func (p Project) Validate() error {
	if p.BundleIdentifier == "" {
		return fmt.Errorf("project: empty bundle identifier")
	}
	if p.Name == "" {
		return fmt.Errorf("project %s: empty name", p.BundleIdentifier)
	}
	return nil
}

// Scheme is a named build configuration belonging to a project.
//
// Platforms is write-once: it may be set on creation and never modified
// afterwards. DisplayOrder drives UI ordering; ties break on Name.
type Scheme struct {
	ID                      string     `json:"id" yaml:"id"`
	ProjectBundleIdentifier string     `json:"project_bundle_identifier" yaml:"project_bundle_identifier"`
	Name                    string     `json:"name" yaml:"name"`
	Platforms               []Platform `json:"platforms" yaml:"platforms"`
	DisplayOrder            int        `json:"display_order" yaml:"display_order"`
}

// Validate checks required fields before a write.
func (s Scheme) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scheme: empty id")
	}
	if s.ProjectBundleIdentifier == "" {
		return fmt.Errorf("scheme %s: empty project bundle identifier", s.ID)
	}
	if s.Name == "" {
		return fmt.Errorf("scheme %s: empty name", s.ID)
	}
	if len(s.Platforms) == 0 {
		return fmt.Errorf("scheme %s: no platforms", s.ID)
	}
	return nil
}

// Build is one execution record for a scheme.
//
// Only Status, Progress, StartDate and EndDate mutate in place as the build
// progresses; every other field is fixed at creation.
type Build struct {
	ID            string      `json:"id" yaml:"id"`
	SchemeID      string      `json:"scheme_id" yaml:"scheme_id"`
	VersionString string      `json:"version_string" yaml:"version_string"`
	BuildNumber   int         `json:"build_number" yaml:"build_number"`
	CommitHash    string      `json:"commit_hash" yaml:"commit_hash"`
	CreatedAt     time.Time   `json:"created_at" yaml:"created_at"`
	StartDate     *time.Time  `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate       *time.Time  `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	ExportOptions []string    `json:"export_options" yaml:"export_options"`
	Status        BuildStatus `json:"status" yaml:"status"`
	Progress      float64     `json:"progress" yaml:"progress"`

	// Device context captured when the build was created.
	DeviceName string  `json:"device_name" yaml:"device_name"`
	OSVersion  string  `json:"os_version" yaml:"os_version"`
	MemoryGB   float64 `json:"memory_gb" yaml:"memory_gb"`
	Processor  string  `json:"processor" yaml:"processor"`
}

// Validate checks required fields and ranges before a write.
func (b Build) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("build: empty id")
	}
	if b.SchemeID == "" {
		return fmt.Errorf("build %s: empty scheme id", b.ID)
	}
	if !b.Status.Valid() {
		return fmt.Errorf("build %s: invalid status %q", b.ID, b.Status)
	}
	if math.IsNaN(b.Progress) || b.Progress < 0 || b.Progress > 1 {
		return fmt.Errorf("build %s: progress %v out of range [0,1]", b.ID, b.Progress)
	}
	return nil
}

// BuildLog is a single log record emitted during a build.
type BuildLog struct {
	ID        string    `json:"id" yaml:"id"`
	BuildID   string    `json:"build_id" yaml:"build_id"`
	Category  string    `json:"category,omitempty" yaml:"category,omitempty"`
	Level     LogLevel  `json:"level" yaml:"level"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Validate checks required fields before a write.
func (l BuildLog) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("build log: empty id")
	}
	if l.BuildID == "" {
		return fmt.Errorf("build log %s: empty build id", l.ID)
	}
	if !l.Level.Valid() {
		return fmt.Errorf("build log %s: invalid level %q", l.ID, l.Level)
	}
	return nil
}

// CrashLog is a crash report attached to a build. The incident identifier is
// a natural key produced by the crash reporter, not generated here.
type CrashLog struct {
	IncidentIdentifier string        `json:"incident_identifier" yaml:"incident_identifier"`
	BuildID            string        `json:"build_id" yaml:"build_id"`
	ThreadName         string        `json:"thread_name" yaml:"thread_name"`
	ProcessName        string        `json:"process_name" yaml:"process_name"`
	Role               string        `json:"role" yaml:"role"`
	OccurredAt         time.Time     `json:"occurred_at" yaml:"occurred_at"`
	Note               string        `json:"note" yaml:"note"`
	Fixed              bool          `json:"fixed" yaml:"fixed"`
	Priority           CrashPriority `json:"priority" yaml:"priority"`
}

// Validate checks required fields before a write.
func (c CrashLog) Validate() error {
	if c.IncidentIdentifier == "" {
		return fmt.Errorf("crash log: empty incident identifier")
	}
	if c.BuildID == "" {
		return fmt.Errorf("crash log %s: empty build id", c.IncidentIdentifier)
	}
	if !c.Priority.Valid() {
		return fmt.Errorf("crash log %s: invalid priority %q", c.IncidentIdentifier, c.Priority)
	}
	return nil
}
