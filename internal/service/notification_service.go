package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"mundotango/internal/cache"
	"mundotango/internal/models"
	"mundotango/internal/notifications"
	"mundotango/internal/observability"
	"mundotango/internal/repository"
	"mundotango/internal/resource"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
)

// FramePublisher delivers WebSocket frames to users, locally or across
// instances.
type FramePublisher interface {
	PublishUser(ctx context.Context, userID uint, frame []byte) error
	PublishUsers(ctx context.Context, userIDs []uint, frame []byte) error
	PublishBroadcast(ctx context.Context, frame []byte) error
}

// NotifyInput describes a notification to create.
type NotifyInput struct {
	UserID  uint
	ActorID uint
	Type    string
	Title   string
	Body    string
	Data    any
}

// NotificationService stores notifications, keeps the unread counter and
// pushes new notifications to the recipient's open sockets.
type NotificationService struct {
	repo repository.NotificationRepository
	push FramePublisher
	rdb  *redis.Client
	env  resource.Env
}

func NewNotificationService(repo repository.NotificationRepository, push FramePublisher, rdb *redis.Client, mediaBaseURL string) *NotificationService {
	return &NotificationService{repo: repo, push: push, rdb: rdb, env: resource.Env{MediaBaseURL: mediaBaseURL}}
}

func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	n := &models.Notification{
		UserID: in.UserID,
		Type:   in.Type,
		Title:  in.Title,
		Body:   in.Body,
	}
	if in.ActorID != 0 {
		actor := in.ActorID
		n.ActorID = &actor
	}
	if in.Data != nil {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		n.Data = datatypes.JSON(raw)
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.Push(ctx, n)
	return n, nil
}

// Push sends a stored notification to its recipient and resets their
// cached unread count. Delivery failures are logged, not returned.
func (s *NotificationService) Push(ctx context.Context, n *models.Notification) {
	s.InvalidateUnread(ctx, n.UserID)
	if s.push == nil {
		return
	}
	shaped, err := resource.Notifications.JSONSchema(n, s.env)
	if err != nil {
		observability.Logger.ErrorContext(ctx, "failed to shape notification", slog.String("error", err.Error()))
		return
	}
	frame, err := notifications.Encode(notifications.TypeNotification, shaped)
	if err != nil {
		observability.Logger.ErrorContext(ctx, "failed to encode notification", slog.String("error", err.Error()))
		return
	}
	if err := s.push.PublishUser(ctx, n.UserID, frame); err != nil {
		observability.Logger.WarnContext(ctx, "notification push failed",
			slog.Uint64("recipient", uint64(n.UserID)), slog.String("error", err.Error()))
	}
}

// InvalidateUnread drops the cached unread count of userID.
func (s *NotificationService) InvalidateUnread(ctx context.Context, userID uint) {
	cache.Invalidate(ctx, s.rdb, cache.UnreadKey(userID))
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return cache.Aside(ctx, s.rdb, cache.UnreadKey(userID), cache.UnreadTTL, func(ctx context.Context) (int64, error) {
		return s.repo.CountUnread(ctx, userID)
	})
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	s.InvalidateUnread(ctx, userID)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.InvalidateUnread(ctx, userID)
	return n, nil
}
