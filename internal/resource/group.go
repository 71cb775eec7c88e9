package resource

import "mundotango/internal/models"

// Groups passes empty input through unchanged.
var Groups = &Resource[models.Group]{
	Name:  "group",
	Empty: EmptyPassthrough,
	Keys: []string{
		"id", "user_id", "name", "slug", "description", "image_url", "group_type",
		"city", "country", "privacy", "createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(g *models.Group, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":          g.ID,
			"user_id":     g.UserID,
			"name":        g.Name,
			"slug":        g.Slug,
			"description": orNull(g.Description),
			"image_url":   NormalizeImageURL(env.MediaBaseURL, g.ImageURL),
			"group_type":  orNull(g.GroupType),
			"city":        orNull(g.City),
			"country":     orNull(g.Country),
			"privacy":     g.Privacy,
		}, g.CreatedAt, g.UpdatedAt, g.DeletedAt), nil
	},
}

var GroupMembers = &Resource[models.GroupMember]{
	Name:  "group member",
	Empty: EmptyObject,
	Keys:  []string{"id", "group_id", "user_id", "user", "role", "status", "createdAt", "updatedAt", "deletedAt"},
	Schema: func(m *models.GroupMember, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":       m.ID,
			"group_id": m.GroupID,
			"user_id":  m.UserID,
			"user":     userSummary(m.User, env),
			"role":     m.Role,
			"status":   m.Status,
		}, m.CreatedAt, m.UpdatedAt, m.DeletedAt), nil
	},
}
