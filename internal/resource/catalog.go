package resource

import "mundotango/internal/models"

var Activities = &Resource[models.Activity]{
	Name:  "activity",
	Empty: EmptyObject,
	Keys:  []string{"id", "user_id", "parent_id", "name", "description", "icon_url", "createdAt", "updatedAt", "deletedAt"},
	Schema: func(a *models.Activity, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":          a.ID,
			"user_id":     ptrOrNull(a.UserID),
			"parent_id":   ptrOrNull(a.ParentID),
			"name":        a.Name,
			"description": orNull(a.Description),
			"icon_url":    NormalizeImageURL(env.MediaBaseURL, a.IconURL),
		}, a.CreatedAt, a.UpdatedAt, a.DeletedAt), nil
	},
}

// Faqs renders empty input, including an empty slice, as {}.
var Faqs = &Resource[models.Faq]{
	Name:  "faq",
	Empty: EmptyObject,
	Keys:  []string{"id", "question", "answer", "createdAt", "updatedAt", "deletedAt"},
	Schema: func(f *models.Faq, _ Env) (Object, error) {
		return withTimestamps(Object{
			"id":       f.ID,
			"question": f.Question,
			"answer":   f.Answer,
		}, f.CreatedAt, f.UpdatedAt, f.DeletedAt), nil
	},
}
