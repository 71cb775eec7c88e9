package models

import (
	"time"

	"gorm.io/gorm"
)

// Activity is an entry in the tango activity catalog (social dancing,
// teaching, organizing, ...). Activities nest through ParentID.
type Activity struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      *uint          `gorm:"index" json:"user_id"`
	ParentID    *uint          `gorm:"index" json:"parent_id"`
	Name        string         `gorm:"size:120;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IconURL     string         `json:"icon_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Faq is a help-center question.
type Faq struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Question  string         `gorm:"type:text;not null" json:"question"`
	Answer    string         `gorm:"type:text" json:"answer"`
	SortOrder int            `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
