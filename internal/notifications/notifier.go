package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"mundotango/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "notifications:user:"
	// BroadcastChannel carries frames for every connected user.
	BroadcastChannel = "notifications:broadcast"
)

// UserChannel is the pub/sub channel of one user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Notifier publishes frames to users. With Redis, frames go through pub/sub
// so every instance's hub can deliver them; without Redis they are handed
// straight to the local hub.
type Notifier struct {
	rdb   *redis.Client
	local *Hub
}

// NewNotifier returns a Notifier. rdb may be nil.
func NewNotifier(rdb *redis.Client, local *Hub) *Notifier {
	return &Notifier{rdb: rdb, local: local}
}

// PublishUser sends frame to every connection of userID.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, frame []byte) error {
	if n.rdb == nil {
		if n.local != nil {
			n.local.SendToUser(userID, frame)
		}
		return nil
	}
	if err := n.rdb.Publish(ctx, UserChannel(userID), frame).Err(); err != nil {
		return fmt.Errorf("publish to user %d: %w", userID, err)
	}
	return nil
}

// PublishUsers sends frame to each of userIDs.
func (n *Notifier) PublishUsers(ctx context.Context, userIDs []uint, frame []byte) error {
	for _, id := range userIDs {
		if err := n.PublishUser(ctx, id, frame); err != nil {
			return err
		}
	}
	return nil
}

// PublishBroadcast sends frame to every connected user.
func (n *Notifier) PublishBroadcast(ctx context.Context, frame []byte) error {
	if n.rdb == nil {
		if n.local != nil {
			n.local.SendToAll(frame)
		}
		return nil
	}
	if err := n.rdb.Publish(ctx, BroadcastChannel, frame).Err(); err != nil {
		return fmt.Errorf("publish broadcast: %w", err)
	}
	return nil
}

// Start subscribes to the user and broadcast channels and forwards every
// message to the local hub until ctx is done. Without Redis it does nothing.
func (n *Notifier) Start(ctx context.Context) error {
	if n.rdb == nil || n.local == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", BroadcastChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n.deliver(msg.Channel, msg.Payload)
			}
		}
	}()
	return nil
}

func (n *Notifier) deliver(channel, payload string) {
	defer func() {
		if r := recover(); r != nil {
			observability.Logger.Error("panic delivering notification",
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()
	n.local.Deliver(channel, payload)
}
