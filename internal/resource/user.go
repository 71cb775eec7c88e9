package resource

import "mundotango/internal/models"

// Users shapes profiles. api_token echoes the caller's token on the auth
// endpoints and is null elsewhere.
var Users = &Resource[models.User]{
	Name:  "user",
	Empty: EmptyObject,
	Keys: []string{
		"id", "name", "username", "email", "image_url", "background_url",
		"bio", "city", "country", "tango_roles", "is_admin", "is_active",
		"api_token", "createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(u *models.User, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":             u.ID,
			"name":           u.Name,
			"username":       u.Username,
			"email":          u.Email,
			"image_url":      NormalizeImageURL(env.MediaBaseURL, u.ImageURL),
			"background_url": NormalizeImageURL(env.MediaBaseURL, u.BackgroundURL),
			"bio":            orNull(u.Bio),
			"city":           orNull(u.City),
			"country":        orNull(u.Country),
			"tango_roles":    SplitList(u.TangoRoles),
			"is_admin":       u.IsAdmin,
			"is_active":      u.IsActive,
			"api_token":      orNull(env.APIToken),
		}, u.CreatedAt, u.UpdatedAt, u.DeletedAt), nil
	},
}

// UserSummaryKeys are the keys of an embedded author/actor.
var UserSummaryKeys = []string{"id", "name", "username", "image_url"}

// userSummary is the compact user embedded in other resources.
func userSummary(u *models.User, env Env) any {
	if u == nil {
		return nil
	}
	return Object{
		"id":        u.ID,
		"name":      u.Name,
		"username":  u.Username,
		"image_url": NormalizeImageURL(env.MediaBaseURL, u.ImageURL),
	}
}

// Mentions shapes @-mention suggestions.
var Mentions = &Resource[models.User]{
	Name:  "mention",
	Empty: EmptyArray,
	Keys:  UserSummaryKeys,
	Schema: func(u *models.User, env Env) (Object, error) {
		return userSummary(u, env).(Object), nil
	},
}
