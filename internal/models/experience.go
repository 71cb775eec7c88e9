package models

import (
	"time"

	"gorm.io/gorm"
)

// DanceExperience is the dancer section of a profile.
// SocialDancingCities is a comma-joined list and may be NULL.
type DanceExperience struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	UserID                 uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	StartedYear            int            `json:"started_year"`
	SocialDancingCities    *string        `json:"social_dancing_cities"`
	FavouriteDancingCities string         `json:"favourite_dancing_cities"`
	LeaderLevel            int            `json:"leader_level"`
	FollowerLevel          int            `json:"follower_level"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// OrganizerExperience is the organizer section of a profile.
// HostedEventTypes is a comma-joined list and may be NULL.
type OrganizerExperience struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	HostedEvents     int            `json:"hosted_events"`
	HostedEventTypes *string        `json:"hosted_event_types"`
	Cities           string         `json:"cities"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// TeacherExperience is the teacher section of a profile.
type TeacherExperience struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	PartnerName     string         `json:"partner_name"`
	Cities          string         `json:"cities"`
	OnlinePlatforms string         `json:"online_platforms"`
	TeachingReason  string         `gorm:"type:text" json:"teaching_reason"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
