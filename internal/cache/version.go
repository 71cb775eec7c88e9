package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Version is the client-cache version. Web clients compare it with their
// stored value and drop local caches when it changes.
type Version struct {
	rdb   *redis.Client
	local atomic.Int64
}

// NewVersion returns a Version backed by rdb, or by process memory when rdb
// is nil. Versions start at 1.
func NewVersion(rdb *redis.Client) *Version {
	v := &Version{rdb: rdb}
	v.local.Store(1)
	return v
}

// Current returns the current version.
func (v *Version) Current(ctx context.Context) (int64, error) {
	if v.rdb == nil {
		return v.local.Load(), nil
	}
	n, err := v.rdb.Get(ctx, VersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache version: %w", err)
	}
	return n, nil
}

// Bump increments the version and returns the new value.
func (v *Version) Bump(ctx context.Context) (int64, error) {
	if v.rdb == nil {
		return v.local.Add(1), nil
	}
	// SETNX seeds the implicit starting value so the first bump yields 2.
	if err := v.rdb.SetNX(ctx, VersionKey, 1, 0).Err(); err != nil {
		return 0, fmt.Errorf("seed cache version: %w", err)
	}
	n, err := v.rdb.Incr(ctx, VersionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("bump cache version: %w", err)
	}
	return n, nil
}
