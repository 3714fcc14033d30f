// Package broadcaster drains the execution outbox onto the executions
// topic. Delivery is at-least-once: a record is only acknowledged after
// the producer confirms the write, and unacknowledged records are
// retried on the next pass.
package broadcaster

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"

	"voltex/infra/outbox"
)

type Broadcaster struct {
	outbox   *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
}

func New(ob *outbox.Outbox, brokers []string, topic string, interval time.Duration) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProducer(ob, producer, topic, interval), nil
}

// NewWithProducer wires an existing producer; tests pass a stub.
func NewWithProducer(ob *outbox.Outbox, producer sarama.SyncProducer, topic string, interval time.Duration) *Broadcaster {
	return &Broadcaster{
		outbox:   ob,
		producer: producer,
		topic:    topic,
		interval: interval,
	}
}

// Start runs the drain loop until ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	log.Println("[broadcaster] started")

	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.DrainOnce()
			}
		}
	}()
}

// DrainOnce attempts delivery of every undelivered record.
func (b *Broadcaster) DrainOnce() {
	err := b.outbox.ScanUndelivered(func(rec outbox.Record) error {
		if err := b.outbox.MarkSent(rec.ID); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(fmt.Sprintf("%d", rec.ID)),
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			log.Printf("[broadcaster] send %d failed (retry %d): %v", rec.ID, rec.Retries+1, err)
			return nil // leave SENT; retried next pass
		}

		return b.outbox.Ack(rec.ID)
	})
	if err != nil {
		log.Printf("[broadcaster] drain pass aborted: %v", err)
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
