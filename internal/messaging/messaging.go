package messaging

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is one event as it travels through the broker.
type Message struct {
	Key     string
	Type    string
	Payload []byte
}

// Handler processes one consumed message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber defines an interface for subscribing to a message topic.
// Consume blocks until ctx is cancelled.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler Handler)
}

type typed interface {
	EventType() string
}

// Encode marshals event and derives its type name.
func Encode(key string, event any) (Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := Message{Key: key, Payload: payload}
	if t, ok := event.(typed); ok {
		msg.Type = t.EventType()
	}
	return msg, nil
}
