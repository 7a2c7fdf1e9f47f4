package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaSender.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes messages to a topic consumed by an external mailer.
type KafkaSender struct {
	writer MessageWriter
	topic  string
}

// NewKafkaSender creates a sender writing to topic on brokers.
func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaSender{writer: w, topic: topic}
}

// NewKafkaSenderWithWriter wraps an existing writer.
func NewKafkaSenderWithWriter(w MessageWriter, topic string) *KafkaSender {
	return &KafkaSender{writer: w, topic: topic}
}

func (k *KafkaSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic:   k.topic,
		Key:     []byte(msg.To),
		Value:   payload,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("mail.requested")}},
	})
	if err != nil {
		return fmt.Errorf("publish mail event to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaSender) Close() error {
	return k.writer.Close()
}
