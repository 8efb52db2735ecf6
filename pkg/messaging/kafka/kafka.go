package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/jwalitptl/scheduling-api/pkg/messaging"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaBroker struct {
	w writer
}

// NewKafkaBroker builds a hash-balanced writer so messages with the same
// key land on the same partition. brokers is a comma separated list.
func NewKafkaBroker(brokers string) (*KafkaBroker, error) {
	addrs := SplitBrokers(brokers)
	if len(addrs) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	return newWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}), nil
}

func newWithWriter(w writer) *KafkaBroker {
	return &KafkaBroker{w: w}
}

func (b *KafkaBroker) Publish(ctx context.Context, topic string, msg *messaging.Message) error {
	value, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	km := kafka.Message{
		Topic: topic,
		Key:   []byte(msg.Key),
		Value: value,
		Time:  msg.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(msg.ID)},
			{Key: HeaderEventType, Value: []byte(msg.Type)},
		},
	}
	if err := b.w.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("failed to write to %s: %w", topic, err)
	}
	return nil
}

func (b *KafkaBroker) Close() error {
	return b.w.Close()
}

// HeaderValue returns the first header named key.
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
