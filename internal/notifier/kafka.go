package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.Notifier = (*Kafka)(nil)

// Writer is the subset of *kafka.Writer the notifier uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes messages as JSON to a topic, keyed by recipient.
type Kafka struct {
	writer Writer
}

// flushTimeout bounds how long a synchronous send waits for its batch to fill.
const flushTimeout = 5 * time.Millisecond

// NewKafka creates a notifier writing to topic on brokers. Every send is
// flushed on its own, so a send costs one broker round trip.
func NewKafka(brokers []string, topic string) *Kafka {
	return NewKafkaWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchSize:              1,
		BatchTimeout:           flushTimeout,
	})
}

// NewKafkaWithWriter allows injecting a test writer.
func NewKafkaWithWriter(w Writer) *Kafka {
	return &Kafka{writer: w}
}

func (k *Kafka) Send(ctx context.Context, msg model.Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Recipient),
		Value: value,
		Time:  msg.CreatedAt,
		Headers: []kafka.Header{
			{Key: "id", Value: []byte(msg.ID)},
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
