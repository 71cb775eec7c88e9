package database

import "mundotango/internal/models"

// PersistentModels returns every schema-managed model.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Activity{},
		&models.Faq{},
		&models.Post{},
		&models.Comment{},
		&models.Event{},
		&models.EventParticipant{},
		&models.Group{},
		&models.GroupMember{},
		&models.Friend{},
		&models.ChatRoom{},
		&models.ChatRoomUser{},
		&models.ChatMessage{},
		&models.Notification{},
		&models.Subscription{},
		&models.DanceExperience{},
		&models.OrganizerExperience{},
		&models.TeacherExperience{},
	}
}
