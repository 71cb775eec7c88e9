package resource

import "mundotango/internal/models"

var Events = &Resource[models.Event]{
	Name:  "event",
	Empty: EmptyArray,
	Keys: []string{
		"id", "user_id", "user", "group_id", "title", "description", "event_type",
		"start_date", "end_date", "venue", "city", "country", "latitude",
		"longitude", "image_url", "max_attendees", "visibility",
		"createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(e *models.Event, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":            e.ID,
			"user_id":       e.UserID,
			"user":          userSummary(e.User, env),
			"group_id":      ptrOrNull(e.GroupID),
			"title":         e.Title,
			"description":   orNull(e.Description),
			"event_type":    orNull(e.EventType),
			"start_date":    ptrOrNull(e.StartDate),
			"end_date":      ptrOrNull(e.EndDate),
			"venue":         orNull(e.Venue),
			"city":          orNull(e.City),
			"country":       orNull(e.Country),
			"latitude":      ptrOrNull(e.Latitude),
			"longitude":     ptrOrNull(e.Longitude),
			"image_url":     NormalizeImageURL(env.MediaBaseURL, e.ImageURL),
			"max_attendees": e.MaxAttendees,
			"visibility":    e.Visibility,
		}, e.CreatedAt, e.UpdatedAt, e.DeletedAt), nil
	},
}

var EventParticipants = &Resource[models.EventParticipant]{
	Name:  "event participant",
	Empty: EmptyObject,
	Keys:  []string{"id", "event_id", "user_id", "user", "status", "createdAt", "updatedAt", "deletedAt"},
	Schema: func(p *models.EventParticipant, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":       p.ID,
			"event_id": p.EventID,
			"user_id":  p.UserID,
			"user":     userSummary(p.User, env),
			"status":   p.Status,
		}, p.CreatedAt, p.UpdatedAt, p.DeletedAt), nil
	},
}
