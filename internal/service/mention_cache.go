package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"mundotango/internal/cache"
	"mundotango/internal/models"
	"mundotango/internal/observability"
	"mundotango/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	MentionLimit      = 10
	DefaultMentionTTL = 10 * time.Minute
	maxMentionQuery   = 40
)

// MentionCache serves @-mention suggestions. Results are cached per
// normalized query under mention:<query>; with no Redis it passes through
// to the database.
type MentionCache struct {
	rdb   *redis.Client
	users repository.UserRepository
	ttl   time.Duration
}

func NewMentionCache(rdb *redis.Client, users repository.UserRepository, ttl time.Duration) *MentionCache {
	if ttl <= 0 {
		ttl = DefaultMentionTTL
	}
	return &MentionCache{rdb: rdb, users: users, ttl: ttl}
}

// NormalizeMentionQuery trims a leading @ and whitespace and lowercases.
func NormalizeMentionQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(q), "@")))
	if utf8.RuneCountInString(q) > maxMentionQuery {
		q = string([]rune(q)[:maxMentionQuery])
	}
	return q
}

// Suggest returns up to MentionLimit active users whose username or name
// starts with q. An empty query returns no users.
func (m *MentionCache) Suggest(ctx context.Context, q string) ([]models.User, error) {
	q = NormalizeMentionQuery(q)
	if q == "" {
		return []models.User{}, nil
	}
	return cache.Aside(ctx, m.rdb, cache.MentionKey(q), m.ttl, func(ctx context.Context) ([]models.User, error) {
		return m.users.SearchByPrefix(ctx, q, MentionLimit)
	})
}

// InvalidateFor drops every cached query that could have matched the given
// usernames or names, i.e. every query that is a prefix of one of them.
func (m *MentionCache) InvalidateFor(ctx context.Context, names ...string) int {
	if m.rdb == nil {
		return 0
	}
	lowered := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			lowered = append(lowered, n)
		}
	}
	if len(lowered) == 0 {
		return 0
	}

	var stale []string
	iter := m.rdb.Scan(ctx, 0, cache.MentionKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		query := strings.TrimPrefix(key, cache.MentionKeyPrefix)
		for _, n := range lowered {
			if strings.HasPrefix(n, query) {
				stale = append(stale, key)
				break
			}
		}
	}
	if err := iter.Err(); err != nil {
		observability.Logger.WarnContext(ctx, "mention cache scan failed", slog.String("error", err.Error()))
		return 0
	}
	cache.Invalidate(ctx, m.rdb, stale...)
	return len(stale)
}
