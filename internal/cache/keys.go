package cache

import (
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	MentionKeyPrefix   = "mention:"
	BlacklistKeyPrefix = "blacklist:"
	UnreadKeyPrefix    = "notifications:unread:%d"
	VersionKey         = "cache:version"
)

const (
	UserTTL   = 5 * time.Minute
	UnreadTTL = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// MentionKey is the cache key for a normalized mention query.
func MentionKey(query string) string {
	return MentionKeyPrefix + query
}

func BlacklistKey(jti string) string {
	return BlacklistKeyPrefix + jti
}

func UnreadKey(userID uint) string {
	return fmt.Sprintf(UnreadKeyPrefix, userID)
}
