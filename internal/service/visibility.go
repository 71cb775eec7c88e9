package service

import (
	"context"
	"slices"

	"mundotango/internal/models"
	"mundotango/internal/repository"

	"gorm.io/gorm"
)

// visibleRows limits post and event lists to what the actor may read: their
// own rows, public rows, and friends-only rows of accepted friends.
func (h *hooks) visibleRows(ctx context.Context, q *repository.ListQuery) error {
	if q.Actor.IsAdmin {
		return nil
	}
	friends, err := h.friendIDs(ctx, q.Actor.ID)
	if err != nil {
		return err
	}
	viewer := q.Actor.ID
	q.Scopes = append(q.Scopes, func(db *gorm.DB) *gorm.DB {
		if len(friends) == 0 {
			return db.Where("(user_id = ? OR visibility = ?)", viewer, models.VisibilityPublic)
		}
		return db.Where("(user_id = ? OR visibility = ? OR (visibility = ? AND user_id IN ?))",
			viewer, models.VisibilityPublic, models.VisibilityFriends, friends)
	})
	return nil
}

func (h *hooks) showPost(ctx context.Context, actor repository.Actor, post *models.Post) error {
	ok, err := h.canView(ctx, actor.ID, post.UserID, post.Visibility)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (h *hooks) showEvent(ctx context.Context, actor repository.Actor, ev *models.Event) error {
	ok, err := h.canView(ctx, actor.ID, ev.UserID, ev.Visibility)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Event", ev.ID)
	}
	return nil
}

func (h *hooks) canView(ctx context.Context, viewer, owner uint, visibility string) (bool, error) {
	switch {
	case viewer == owner:
		return true, nil
	case visibility == "" || visibility == models.VisibilityPublic:
		return true, nil
	case visibility == models.VisibilityFriends:
		friends, err := h.friendIDs(ctx, viewer)
		if err != nil {
			return false, err
		}
		return slices.Contains(friends, owner), nil
	}
	return false, nil
}

func (h *hooks) friendIDs(ctx context.Context, userID uint) ([]uint, error) {
	if h.Friends == nil {
		return nil, nil
	}
	return h.Friends.AcceptedFriendIDs(ctx, userID)
}
