package model

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for new schemes, builds and build logs.
// Crash logs are excluded: their incident identifier comes from the crash
// reporter and is never generated here.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids created
// later sort later. That keeps rowid and id ordering roughly aligned, which
// helps when eyeballing a database.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// NewID returns a new hyphenated UUIDv7 string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedIDGenerator returns predetermined ids for testing.
//
// Tests provide a known sequence and get deterministic rows out, which makes
// golden output comparison possible.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
// Panics when exhausted, to fail fast on test misconfiguration.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// NewID returns the next predetermined id.
func (g *FixedIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
