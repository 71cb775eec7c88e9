package repository

import (
	"context"
	"time"

	"mundotango/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository manages room membership and room activity timestamps.
type ChatRepository interface {
	AddMember(ctx context.Context, roomID, userID uint) error
	MemberIDs(ctx context.Context, roomID uint) ([]uint, error)
	IsMember(ctx context.Context, roomID, userID uint) (bool, error)
	TouchLastMessage(ctx context.Context, roomID uint, at time.Time) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) AddMember(ctx context.Context, roomID, userID uint) error {
	member := models.ChatRoomUser{ChatRoomID: roomID, UserID: userID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) MemberIDs(ctx context.Context, roomID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.ChatRoomUser{}).
		Where("chat_room_id = ?", roomID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *chatRepository) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChatRoomUser{}).
		Where("chat_room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *chatRepository) TouchLastMessage(ctx context.Context, roomID uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Update("last_message_at", at).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
