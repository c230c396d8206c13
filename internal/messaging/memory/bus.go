// Package memory is the in-process broker used when no Kafka brokers are
// configured. It rides on watermill's Go channel pub/sub; messages
// published while nobody subscribes are dropped.
package memory

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/bluebuff/storefront/internal/messaging"
)

const eventTypeKey = "event_type"

type Bus struct {
	pubSub *gochannel.GoChannel
}

// NewBus creates a Bus whose PublishEvent returns once every subscriber
// has handled the message.
func NewBus() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, watermill.NewSlogLogger(slog.Default())),
	}
}

var (
	_ messaging.Publisher  = (*Bus)(nil)
	_ messaging.Subscriber = (*Bus)(nil)
)

func (b *Bus) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	m, err := messaging.Encode(key, event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), m.Payload)
	msg.Metadata.Set("key", m.Key)
	msg.Metadata.Set(eventTypeKey, m.Type)
	msg.SetContext(ctx)
	return b.pubSub.Publish(topic, msg)
}

// Consume handles messages of topic until ctx is done. groupID is ignored;
// every consumer sees every message.
func (b *Bus) Consume(ctx context.Context, topic string, groupID string, handler messaging.Handler) {
	ch, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		slog.Error("Failed to subscribe", "topic", topic, "err", err)
		return
	}
	b.drain(topic, ch, handler)
	slog.Info("Consumer shutting down", "topic", topic)
}

// Subscribe registers handler for topic for the life of the Bus.
func (b *Bus) Subscribe(topic string, handler messaging.Handler) error {
	ch, err := b.pubSub.Subscribe(context.Background(), topic)
	if err != nil {
		return err
	}
	go b.drain(topic, ch, handler)
	return nil
}

// drain acks every message; handler errors are logged as with the Kafka
// consumer, never redelivered.
func (b *Bus) drain(topic string, ch <-chan *message.Message, handler messaging.Handler) {
	for msg := range ch {
		m := messaging.Message{
			Key:     msg.Metadata.Get("key"),
			Type:    msg.Metadata.Get(eventTypeKey),
			Payload: msg.Payload,
		}
		if err := handler(msg.Context(), m); err != nil {
			slog.Error("Error handling message", "topic", topic, "key", m.Key, "err", err)
		}
		msg.Ack()
	}
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
