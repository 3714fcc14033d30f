package service

import (
	"context"
	"log"
	"time"

	"voltex/domain/auction"
	"voltex/engine"
	"voltex/infra/kafka"
	"voltex/infra/outbox"
)

// Fanout delivers every event to each wired sink in order.
type Fanout []engine.Sink

func (f Fanout) Publish(ev auction.Event) {
	for _, s := range f {
		s.Publish(ev)
	}
}

// KafkaSink adapts the kafka producer to the engine's fire-and-forget
// sink. The events topic is best effort; a failed publish is logged,
// never propagated into the operation that produced the event.
type KafkaSink struct {
	Producer *kafka.Producer
	Timeout  time.Duration
}

func (k *KafkaSink) Publish(ev auction.Event) {
	timeout := k.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := k.Producer.Publish(ctx, ev); err != nil {
		log.Printf("[events] publish %s for auction %d failed: %v", ev.EventType(), ev.Auction(), err)
	}
}

// OutboxSink records executed matches durably so the broadcaster can
// deliver them at least once. Other event types pass through untouched.
type OutboxSink struct {
	Outbox *outbox.Outbox
}

func (o *OutboxSink) Publish(ev auction.Event) {
	ex, ok := ev.(auction.Executed)
	if !ok {
		return
	}
	payload, err := auction.Encode(ex)
	if err != nil {
		log.Printf("[outbox] encode execution %d failed: %v", ex.AuctionID, err)
		return
	}
	if err := o.Outbox.Put(uint64(ex.AuctionID), payload); err != nil {
		log.Printf("[outbox] record execution %d failed: %v", ex.AuctionID, err)
	}
}
