package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types emitted by the API.
const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_accepted"
	NotificationNewMessage     = "new_message"
	NotificationActivity       = "activity"
)

// Notification is an in-app notification for UserID.
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:idx_notifications_user_read" json:"user_id"`
	ActorID   *uint          `json:"actor_id"`
	Actor     *User          `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Type      string         `gorm:"size:40;index" json:"type"`
	Title     string         `json:"title"`
	Body      string         `gorm:"type:text" json:"body"`
	Data      datatypes.JSON `json:"data"`
	IsRead    bool           `gorm:"default:false;index:idx_notifications_user_read" json:"is_read"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Subscription is a user's paid plan.
type Subscription struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"not null;index" json:"user_id"`
	Plan               string         `gorm:"size:40" json:"plan"`
	Status             string         `gorm:"size:20;default:'active'" json:"status"`
	ProviderCustomerID string         `json:"provider_customer_id"`
	CurrentPeriodEnd   *time.Time     `json:"current_period_end"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
