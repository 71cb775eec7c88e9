// Package queue publishes domain events to RabbitMQ and consumes them in the
// background worker.
package queue

import "time"

// ActivityQueue is the durable queue carrying domain events.
const ActivityQueue = "mundotango.activity"

// Domain event types.
const (
	EventPostCreated    = "post.created"
	EventEventCreated   = "event.created"
	EventFriendAccepted = "friend.accepted"
	EventGroupJoined    = "group.joined"
)

// Event is a domain event. SubjectID is the id of the created or changed
// record; Summary is a short human-readable description.
type Event struct {
	Type       string    `json:"type"`
	ActorID    uint      `json:"actor_id"`
	SubjectID  uint      `json:"subject_id"`
	Summary    string    `json:"summary"`
	OccurredAt time.Time `json:"occurred_at"`
}
