package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a city community or practice group.
type Group struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Name        string         `gorm:"size:150;not null" json:"name"`
	Slug        string         `gorm:"size:160;uniqueIndex" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	ImageURL    string         `json:"image_url"`
	GroupType   string         `gorm:"size:40" json:"group_type"`
	City        string         `gorm:"size:120;index" json:"city"`
	Country     string         `gorm:"size:120" json:"country"`
	Privacy     string         `gorm:"size:20;default:'public'" json:"privacy"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// GroupMember links a user to a group.
type GroupMember struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GroupID   uint           `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_group_member" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string         `gorm:"size:20;default:'member'" json:"role"`
	Status    string         `gorm:"size:20;default:'active'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
