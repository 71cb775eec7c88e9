package repository

import (
	"context"

	"mundotango/internal/models"

	"gorm.io/gorm"
)

// FriendRepository answers friendship graph questions.
type FriendRepository interface {
	AcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error)
	Between(ctx context.Context, a, b uint) (*models.Friend, error)
}

type friendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

// AcceptedFriendIDs returns the other side of every accepted friendship of userID.
func (r *friendRepository) AcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var rows []models.Friend
	err := r.db.WithContext(ctx).
		Select("user_id", "friend_id").
		Where("status = ? AND (user_id = ? OR friend_id = ?)", models.FriendStatusAccepted, userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	ids := make([]uint, 0, len(rows))
	for _, f := range rows {
		if f.UserID == userID {
			ids = append(ids, f.FriendID)
		} else {
			ids = append(ids, f.UserID)
		}
	}
	return ids, nil
}

// Between returns the friendship row linking a and b in either direction,
// or nil when there is none.
func (r *friendRepository) Between(ctx context.Context, a, b uint) (*models.Friend, error) {
	var rows []models.Friend
	err := r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
