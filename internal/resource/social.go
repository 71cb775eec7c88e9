package resource

import "mundotango/internal/models"

var Posts = &Resource[models.Post]{
	Name:  "post",
	Empty: EmptyArray,
	Keys: []string{
		"id", "user_id", "user", "group_id", "event_id", "content", "image_url",
		"video_url", "visibility", "location", "hashtags",
		"createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(p *models.Post, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":         p.ID,
			"user_id":    p.UserID,
			"user":       userSummary(p.User, env),
			"group_id":   ptrOrNull(p.GroupID),
			"event_id":   ptrOrNull(p.EventID),
			"content":    p.Content,
			"image_url":  NormalizeImageURL(env.MediaBaseURL, p.ImageURL),
			"video_url":  NormalizeImageURL(env.MediaBaseURL, p.VideoURL),
			"visibility": p.Visibility,
			"location":   orNull(p.Location),
			"hashtags":   SplitList(p.Hashtags),
		}, p.CreatedAt, p.UpdatedAt, p.DeletedAt), nil
	},
}

var Comments = &Resource[models.Comment]{
	Name:  "comment",
	Empty: EmptyArray,
	Keys:  []string{"id", "post_id", "user_id", "user", "content", "createdAt", "updatedAt", "deletedAt"},
	Schema: func(c *models.Comment, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":      c.ID,
			"post_id": c.PostID,
			"user_id": c.UserID,
			"user":    userSummary(c.User, env),
			"content": c.Content,
		}, c.CreatedAt, c.UpdatedAt, c.DeletedAt), nil
	},
}

var Friends = &Resource[models.Friend]{
	Name:  "friend",
	Empty: EmptyArray,
	Keys:  []string{"id", "user_id", "friend_id", "friend", "status", "note", "createdAt", "updatedAt", "deletedAt"},
	Schema: func(f *models.Friend, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":        f.ID,
			"user_id":   f.UserID,
			"friend_id": f.FriendID,
			"friend":    userSummary(f.Friend, env),
			"status":    f.Status,
			"note":      orNull(f.Note),
		}, f.CreatedAt, f.UpdatedAt, f.DeletedAt), nil
	},
}
