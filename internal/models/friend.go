package models

import (
	"time"

	"gorm.io/gorm"
)

// Friend request states.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusRejected = "rejected"
)

// Friend is a directed friendship request from UserID to FriendID.
type Friend struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_friend_pair" json:"user_id"`
	FriendID  uint           `gorm:"not null;uniqueIndex:idx_friend_pair" json:"friend_id"`
	Friend    *User          `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
	Status    string         `gorm:"size:20;default:'pending';index" json:"status"`
	Note      string         `json:"note"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
