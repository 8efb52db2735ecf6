package messaging

import (
	"context"
	"time"
)

// Broker publishes messages to a named topic or channel.
type Broker interface {
	Publish(ctx context.Context, topic string, msg *Message) error
	Close() error
}

// Message is the envelope written to every broker. Key selects the
// partition on brokers that support it.
type Message struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Key        string      `json:"-"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}
