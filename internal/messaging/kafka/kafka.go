package kafka

import (
	"context"
	"log/slog"
	"sync"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/bluebuff/storefront/internal/messaging"
)

// eventTypeHeader carries the event type so consumers can decode the payload.
const eventTypeHeader = "event_type"

// Broker publishes to and consumes from Kafka with one writer per topic.
type Broker struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafkaGo.Writer
}

// NewKafkaBroker creates a Broker serving as both publisher and subscriber.
func NewKafkaBroker(brokers []string) *Broker {
	kb := &Broker{brokers: brokers, writers: make(map[string]*kafkaGo.Writer)}
	return kb
}

var (
	_ messaging.Publisher  = (*Broker)(nil)
	_ messaging.Subscriber = (*Broker)(nil)
)

func (k *Broker) writer(topic string) *kafkaGo.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	w, ok := k.writers[topic]
	if !ok {
		w = &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(k.brokers...),
			Topic:                  topic,
			Balancer:               &kafkaGo.Hash{},
			AllowAutoTopicCreation: true,
		}
		k.writers[topic] = w
	}
	return w
}

// PublishEvent writes event keyed by key so every event of one checkout
// lands on the same partition in order.
func (k *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	msg, err := messaging.Encode(key, event)
	if err != nil {
		return err
	}

	return k.writer(topic).WriteMessages(ctx, toKafka(msg))
}

func toKafka(msg messaging.Message) kafkaGo.Message {
	return kafkaGo.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Payload,
		Headers: []kafkaGo.Header{{Key: eventTypeHeader, Value: []byte(msg.Type)}},
	}
}

func fromKafka(m kafkaGo.Message) messaging.Message {
	msg := messaging.Message{Key: string(m.Key), Payload: m.Value}
	for _, h := range m.Headers {
		if h.Key == eventTypeHeader {
			msg.Type = string(h.Value)
		}
	}
	return msg
}

func (k *Broker) Consume(ctx context.Context, topic string, groupID string, handler messaging.Handler) {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Consumer shutting down", "topic", topic)
				return
			}
			slog.Error("Error reading message", "topic", topic, "err", err)
			continue
		}

		if err := handler(ctx, fromKafka(m)); err != nil {
			slog.Error("Error handling message", "topic", topic, "key", string(m.Key), "err", err)
		}
	}
}

// Close flushes and closes every writer.
func (k *Broker) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var firstErr error
	for topic, w := range k.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(k.writers, topic)
	}
	return firstErr
}
