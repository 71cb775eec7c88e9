package service

import (
	"context"
	"fmt"

	"mundotango/internal/models"
	"mundotango/internal/queue"
	"mundotango/internal/repository"
)

// ActivityRecorder turns domain events into activity notifications for the
// actor's accepted friends. It runs in the worker.
type ActivityRecorder struct {
	friends       repository.FriendRepository
	notifications *NotificationService
}

func NewActivityRecorder(friends repository.FriendRepository, notifications *NotificationService) *ActivityRecorder {
	return &ActivityRecorder{friends: friends, notifications: notifications}
}

var activityTitles = map[string]string{
	queue.EventPostCreated:    "New post",
	queue.EventEventCreated:   "New event",
	queue.EventFriendAccepted: "New friendship",
	queue.EventGroupJoined:    "Joined a group",
}

// Handle is a queue.Handler. Unknown event types are ignored.
func (r *ActivityRecorder) Handle(ctx context.Context, ev queue.Event) error {
	title, ok := activityTitles[ev.Type]
	if !ok || ev.ActorID == 0 {
		return nil
	}
	ids, err := r.friends.AcceptedFriendIDs(ctx, ev.ActorID)
	if err != nil {
		return fmt.Errorf("load friends of %d: %w", ev.ActorID, err)
	}
	for _, id := range ids {
		_, err := r.notifications.Notify(ctx, NotifyInput{
			UserID:  id,
			ActorID: ev.ActorID,
			Type:    models.NotificationActivity,
			Title:   title,
			Body:    ev.Summary,
			Data: map[string]any{
				"event":      ev.Type,
				"subject_id": ev.SubjectID,
			},
		})
		if err != nil {
			return fmt.Errorf("notify %d: %w", id, err)
		}
	}
	return nil
}
