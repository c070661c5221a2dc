package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grepug/xcodebuilder/internal/model"
)

// Timestamps are stored as RFC 3339 UTC strings. Lexicographic order on the
// column equals chronological order, so SQL ORDER BY works directly; ties
// break on rowid.
const timeLayout = time.RFC3339

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func fmtNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// marshalPlatforms serializes the platform set as a JSON array, preserving
// order. The serialized form is also what the immutability check compares.
func marshalPlatforms(platforms []model.Platform) (string, error) {
	if platforms == nil {
		platforms = []model.Platform{}
	}
	b, err := json.Marshal(platforms)
	if err != nil {
		return "", fmt.Errorf("marshal platforms: %w", err)
	}
	return string(b), nil
}

func unmarshalPlatforms(s string) ([]model.Platform, error) {
	var platforms []model.Platform
	if err := json.Unmarshal([]byte(s), &platforms); err != nil {
		return nil, fmt.Errorf("unmarshal platforms: %w", err)
	}
	if platforms == nil {
		platforms = []model.Platform{}
	}
	return platforms, nil
}

func marshalExportOptions(opts []string) (string, error) {
	if opts == nil {
		opts = []string{}
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("marshal export options: %w", err)
	}
	return string(b), nil
}

func unmarshalExportOptions(s string) ([]string, error) {
	var opts []string
	if err := json.Unmarshal([]byte(s), &opts); err != nil {
		return nil, fmt.Errorf("unmarshal export options: %w", err)
	}
	if opts == nil {
		opts = []string{}
	}
	return opts, nil
}
