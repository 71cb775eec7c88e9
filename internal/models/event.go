package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is a milonga, festival, workshop or class.
type Event struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	User         *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	GroupID      *uint          `gorm:"index" json:"group_id"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	EventType    string         `gorm:"size:40;index" json:"event_type"`
	StartDate    *time.Time     `gorm:"index" json:"start_date"`
	EndDate      *time.Time     `json:"end_date"`
	Venue        string         `json:"venue"`
	City         string         `gorm:"size:120;index" json:"city"`
	Country      string         `gorm:"size:120" json:"country"`
	Latitude     *float64       `json:"latitude"`
	Longitude    *float64       `json:"longitude"`
	ImageURL     string         `json:"image_url"`
	MaxAttendees int            `json:"max_attendees"`
	Visibility   string         `gorm:"size:20;default:'public'" json:"visibility"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// EventParticipant records a user's RSVP to an event.
type EventParticipant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	EventID   uint           `gorm:"not null;uniqueIndex:idx_event_participant" json:"event_id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_event_participant" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    string         `gorm:"size:20;default:'going'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
