package resource

import (
	"encoding/json"

	"mundotango/internal/models"
)

var Notifications = &Resource[models.Notification]{
	Name:  "notification",
	Empty: EmptyArray,
	Keys: []string{
		"id", "user_id", "actor_id", "actor", "type", "title", "body", "data",
		"is_read", "read_at", "createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(n *models.Notification, env Env) (Object, error) {
		var data any
		if len(n.Data) > 0 {
			data = json.RawMessage(n.Data)
		}
		return withTimestamps(Object{
			"id":       n.ID,
			"user_id":  n.UserID,
			"actor_id": ptrOrNull(n.ActorID),
			"actor":    userSummary(n.Actor, env),
			"type":     n.Type,
			"title":    orNull(n.Title),
			"body":     orNull(n.Body),
			"data":     data,
			"is_read":  n.IsRead,
			"read_at":  ptrOrNull(n.ReadAt),
		}, n.CreatedAt, n.UpdatedAt, n.DeletedAt), nil
	},
}

var Subscriptions = &Resource[models.Subscription]{
	Name:  "subscription",
	Empty: EmptyObject,
	Keys: []string{
		"id", "user_id", "plan", "status", "provider_customer_id", "current_period_end",
		"createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(s *models.Subscription, _ Env) (Object, error) {
		return withTimestamps(Object{
			"id":                   s.ID,
			"user_id":              s.UserID,
			"plan":                 s.Plan,
			"status":               s.Status,
			"provider_customer_id": orNull(s.ProviderCustomerID),
			"current_period_end":   ptrOrNull(s.CurrentPeriodEnd),
		}, s.CreatedAt, s.UpdatedAt, s.DeletedAt), nil
	},
}
