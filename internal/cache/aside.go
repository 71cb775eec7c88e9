package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"mundotango/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside returns the JSON value cached at key, or calls fetch, caches its
// result for ttl and returns it. A nil client or a Redis failure falls back
// to fetch; cache write errors are logged and otherwise ignored.
func Aside[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if rdb == nil {
		return fetch(ctx)
	}

	raw, err := rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		observability.Logger.WarnContext(ctx, "discarding undecodable cache entry", slog.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		observability.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}
	if encoded, jsonErr := json.Marshal(value); jsonErr == nil {
		if setErr := rdb.Set(ctx, key, encoded, ttl).Err(); setErr != nil {
			observability.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", setErr.Error()))
		}
	}
	return value, nil
}

// Invalidate deletes keys, ignoring a nil client.
func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	rdb.Del(ctx, keys...)
}
