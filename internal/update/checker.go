package update

import (
	"context"
	"time"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/cache"
)

// Cache is the subset of internal/cache.Cache the checker needs, so tests
// can substitute an in-memory fake.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Report is the unified update-check result cached per game for 24 hours.
type Report struct {
	GameID      int64
	CheckedAt   time.Time
	Decisions   []Decision
	Resolutions map[int64]ResolvedFile // keyed by NexusModID
	Stale       bool // never set by this module; Load never returns an expired report
}

// Load returns a cached report if present and unexpired; otherwise it
// returns c.Get's error (internal/cache reports ErrNotFound or ErrExpired).
// An expired report is never returned, so there is no stale report to
// fall back to when the catalog is unreachable.
func Load(ctx context.Context, c Cache, gameID int64) (Report, error) {
	var r Report
	err := c.Get(ctx, cache.UpdateCheckKey(gameID), &r)
	if err != nil {
		return Report{}, err
	}
	return r, nil
}

// Store persists a freshly computed report with the standard 24h TTL.
func Store(ctx context.Context, c Cache, r Report) error {
	return c.SetWithTTL(ctx, cache.UpdateCheckKey(r.GameID), r, cache.UpdateCheckTTL)
}
