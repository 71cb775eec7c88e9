package resource

import "mundotango/internal/models"

// DanceExperiences fails with ErrNullListColumn when social_dancing_cities is NULL.
var DanceExperiences = &Resource[models.DanceExperience]{
	Name:  "dance experience",
	Empty: EmptyObject,
	Keys: []string{
		"id", "user_id", "started_year", "social_dancing_cities",
		"favourite_dancing_cities", "leader_level", "follower_level",
		"createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(d *models.DanceExperience, _ Env) (Object, error) {
		social, err := splitRequired("social_dancing_cities", d.SocialDancingCities)
		if err != nil {
			return nil, err
		}
		return withTimestamps(Object{
			"id":                       d.ID,
			"user_id":                  d.UserID,
			"started_year":             d.StartedYear,
			"social_dancing_cities":    social,
			"favourite_dancing_cities": SplitList(d.FavouriteDancingCities),
			"leader_level":             d.LeaderLevel,
			"follower_level":           d.FollowerLevel,
		}, d.CreatedAt, d.UpdatedAt, d.DeletedAt), nil
	},
}

// OrganizerExperiences fails with ErrNullListColumn when hosted_event_types is NULL.
var OrganizerExperiences = &Resource[models.OrganizerExperience]{
	Name:  "organizer experience",
	Empty: EmptyObject,
	Keys:  []string{"id", "user_id", "hosted_events", "hosted_event_types", "cities", "createdAt", "updatedAt", "deletedAt"},
	Schema: func(o *models.OrganizerExperience, _ Env) (Object, error) {
		types, err := splitRequired("hosted_event_types", o.HostedEventTypes)
		if err != nil {
			return nil, err
		}
		return withTimestamps(Object{
			"id":                 o.ID,
			"user_id":            o.UserID,
			"hosted_events":      o.HostedEvents,
			"hosted_event_types": types,
			"cities":             SplitList(o.Cities),
		}, o.CreatedAt, o.UpdatedAt, o.DeletedAt), nil
	},
}

var TeacherExperiences = &Resource[models.TeacherExperience]{
	Name:  "teacher experience",
	Empty: EmptyPassthrough,
	Keys: []string{
		"id", "user_id", "partner_name", "cities", "online_platforms", "teaching_reason",
		"createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(t *models.TeacherExperience, _ Env) (Object, error) {
		return withTimestamps(Object{
			"id":               t.ID,
			"user_id":          t.UserID,
			"partner_name":     orNull(t.PartnerName),
			"cities":           SplitList(t.Cities),
			"online_platforms": SplitList(t.OnlinePlatforms),
			"teaching_reason":  orNull(t.TeachingReason),
		}, t.CreatedAt, t.UpdatedAt, t.DeletedAt), nil
	},
}
