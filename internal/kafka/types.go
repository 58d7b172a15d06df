package kafka

import "time"

const PatternKudosCreated = "kudos.created"

// Message is the envelope written to the kudos topic.
type Message[T any] struct {
	Pattern    string    `json:"pattern"`
	OccurredAt time.Time `json:"occurred_at"`
	RequestID  string    `json:"request_id,omitempty"`
	Data       T         `json:"data"`
}
