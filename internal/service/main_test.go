package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"mundotango/internal/database"
	"mundotango/internal/models"
	"mundotango/internal/notifications"
	"mundotango/internal/queue"
	"mundotango/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type sentFrame struct {
	UserID    uint
	Broadcast bool
	Type      string
	Data      map[string]any
}

// framesStub records frames instead of delivering them.
type framesStub struct {
	mu     sync.Mutex
	frames []sentFrame
}

func (s *framesStub) record(userID uint, broadcast bool, frame []byte) {
	env, err := notifications.Decode(frame)
	if err != nil {
		panic(err)
	}
	var data map[string]any
	_ = json.Unmarshal(env.Data, &data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, sentFrame{UserID: userID, Broadcast: broadcast, Type: env.Type, Data: data})
}

func (s *framesStub) PublishUser(_ context.Context, userID uint, frame []byte) error {
	s.record(userID, false, frame)
	return nil
}

func (s *framesStub) PublishUsers(ctx context.Context, userIDs []uint, frame []byte) error {
	for _, id := range userIDs {
		_ = s.PublishUser(ctx, id, frame)
	}
	return nil
}

func (s *framesStub) PublishBroadcast(_ context.Context, frame []byte) error {
	s.record(0, true, frame)
	return nil
}

func (s *framesStub) ofType(frameType string) []sentFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentFrame
	for _, f := range s.frames {
		if f.Type == frameType {
			out = append(out, f)
		}
	}
	return out
}

type eventsStub struct {
	mu     sync.Mutex
	events []queue.Event
}

func (s *eventsStub) Publish(_ context.Context, ev queue.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *eventsStub) Close() error { return nil }

func (s *eventsStub) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

// fixture wires the services against one database.
type fixture struct {
	db            *gorm.DB
	rdb           *redis.Client
	frames        *framesStub
	events        *eventsStub
	users         repository.UserRepository
	notifications *NotificationService
	mentions      *MentionCache
	models        *RestModels
}

func newFixture(t *testing.T, rdb *redis.Client) *fixture {
	t.Helper()
	db := setupSQLite(t)
	f := &fixture{db: db, rdb: rdb, frames: &framesStub{}, events: &eventsStub{}}
	f.users = repository.NewUserRepository(db, rdb)
	f.notifications = NewNotificationService(repository.NewNotificationRepository(db), f.frames, rdb, "")
	f.mentions = NewMentionCache(rdb, f.users, 0)
	f.models = NewRestModels(Deps{
		Users:         f.users,
		Friends:       repository.NewFriendRepository(db),
		Chat:          NewChatService(repository.NewChatRepository(db), f.frames, ""),
		Mentions:      f.mentions,
		Notifications: f.notifications,
		Push:          f.frames,
		Events:        f.events,
	})
	return f
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Name: username, Username: username, Email: username + "@example.com", Password: "x", IsActive: true}
	require.NoError(t, f.db.Create(u).Error)
	return u
}
