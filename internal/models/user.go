// Package models contains the persisted entities of the Mundo Tango API.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a member of the community.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:120" json:"name"`
	Username      string         `gorm:"size:40;uniqueIndex;not null" json:"username"`
	Email         string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password      string         `gorm:"not null" json:"-"`
	ImageURL      string         `json:"image_url"`
	BackgroundURL string         `json:"background_url"`
	Bio           string         `gorm:"type:text" json:"bio"`
	City          string         `gorm:"size:120;index" json:"city"`
	Country       string         `gorm:"size:120" json:"country"`
	TangoRoles    string         `json:"tango_roles"`
	IsAdmin       bool           `gorm:"default:false" json:"is_admin"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
