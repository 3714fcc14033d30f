// Package kafka publishes domain events to the events topic. Delivery
// here is best effort; guaranteed delivery of executions goes through
// the outbox and broadcaster instead.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"voltex/domain/auction"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish writes one event, keyed by auction id so all events of one
// auction land on the same partition.
func (p *Producer) Publish(ctx context.Context, ev auction.Event) error {
	value, err := auction.Encode(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", uint64(ev.Auction()))),
		Value: value,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
