package service

import (
	"context"
	"log"
	"time"

	"voltex/engine"
)

// TickDriver is the external discrete clock. It owns the loop: once per
// interval it advances the height counter and invokes the observer. The
// engine registers no handler of its own.
type TickDriver struct {
	observer engine.TimeStepObserver
	interval time.Duration
	height   uint64
}

// NewTickDriver starts counting from the height after start, so a
// restarted process passes the engine's persisted height here and the
// sequence continues without a gap.
func NewTickDriver(observer engine.TimeStepObserver, interval time.Duration, start uint64) *TickDriver {
	return &TickDriver{observer: observer, interval: interval, height: start}
}

// Run blocks until ctx is cancelled, delivering one OnTimeStep per
// tick. A failed tick is logged and NOT retried at the same height; the
// observer's own sweep handles any bucket left behind.
func (d *TickDriver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Printf("[clock] driving ticks every %s from height %d", d.interval, d.height)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.height++
			if err := d.observer.OnTimeStep(d.height); err != nil {
				log.Printf("[clock] time step %d failed: %v", d.height, err)
			}
		}
	}
}

// Height returns the last delivered height.
func (d *TickDriver) Height() uint64 {
	return d.height
}
