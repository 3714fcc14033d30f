package engine

import (
	"encoding/binary"
	"fmt"
	"sync"

	"voltex/domain/auction"
	"voltex/infra/kv"
)

const (
	// DefaultTicksPerMinute converts the caller-facing auction period
	// (minutes) into engine ticks: 60 seconds per minute over 6-second
	// ticks.
	DefaultTicksPerMinute = 10

	// DefaultIndexCapacity bounds each participant's recent-auction
	// cache.
	DefaultIndexCapacity = 10
)

// Sink receives domain events after the operation that produced them
// has committed.
type Sink interface {
	Publish(ev auction.Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev auction.Event)

func (f SinkFunc) Publish(ev auction.Event) { f(ev) }

// TimeStepObserver is invoked by the external clock exactly once per
// discrete tick. The engine registers no handler anywhere; the caller
// owns the loop.
type TimeStepObserver interface {
	OnTimeStep(height uint64) error
}

// Options tune the engine. Zero values select the defaults above and
// the two-tier classifier.
type Options struct {
	TicksPerMinute uint64
	IndexCapacity  int
	Classifier     auction.Classifier
}

// Engine orchestrates create, bid, cancel, and time-step-driven
// matching across the registry, execution queue, and participant index.
// It is the only component allowed to mutate any of them.
type Engine struct {
	mu sync.Mutex

	kv       kv.Store
	registry *Registry
	queue    *Queue
	parties  *Parties
	sink     Sink

	classifier     auction.Classifier
	ticksPerMinute uint64

	height uint64
}

func New(store kv.Store, sink Sink, opts Options) *Engine {
	if opts.TicksPerMinute == 0 {
		opts.TicksPerMinute = DefaultTicksPerMinute
	}
	if opts.Classifier.IsZero() {
		opts.Classifier = auction.DefaultClassifier
	}
	if sink == nil {
		sink = SinkFunc(func(auction.Event) {})
	}
	return &Engine{
		kv:             store,
		registry:       NewRegistry(store),
		queue:          NewQueue(store),
		parties:        NewParties(store, opts.IndexCapacity),
		sink:           sink,
		classifier:     opts.Classifier,
		ticksPerMinute: opts.TicksPerMinute,
	}
}

// Load restores the last processed height so a restarted process
// resumes its logical clock where it left off.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	raw, ok, err := e.kv.Get(heightKey)
	if err != nil {
		return fmt.Errorf("read height: %w", err)
	}
	if ok {
		e.height = binary.BigEndian.Uint64(raw)
	}
	return nil
}

// Height returns the last height processed by OnTimeStep.
func (e *Engine) Height() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height
}

// Create opens an auction for seller and returns its id. The period is
// given in minutes and converted to ticks; expiry is fixed at creation
// and never mutated.
func (e *Engine) Create(seller auction.Account, quantity, startingPrice uint64, periodMinutes uint16, memo string) (auction.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity == 0 {
		return 0, auction.ErrInvalidQuantity
	}

	b := e.kv.NewBatch()
	id, err := e.registry.AllocateID(b)
	if err != nil {
		return 0, err
	}

	period := uint64(periodMinutes) * e.ticksPerMinute
	rec := &auction.Record{
		ID:            id,
		Seller:        seller,
		Quantity:      quantity,
		StartingPrice: startingPrice,
		Memo:          memo,
		Status:        auction.StatusOpen,
		Tier:          e.classifier.Classify(quantity),
		CreatedAt:     e.height,
		Period:        period,
		ExpiresAt:     e.height + period,
		HighestBid:    auction.Bid{Bidder: seller, Amount: startingPrice},
	}

	if err := e.registry.Put(b, rec); err != nil {
		return 0, err
	}
	if err := e.parties.Touch(b, seller, RoleSeller, rec.Summary()); err != nil {
		return 0, err
	}
	e.queue.Schedule(b, rec.ExpiresAt, id)

	if err := e.kv.Commit(b); err != nil {
		return 0, fmt.Errorf("commit create: %w", err)
	}

	e.sink.Publish(auction.Created{
		AuctionID:     id,
		Seller:        seller,
		Quantity:      quantity,
		StartingPrice: startingPrice,
		Memo:          memo,
	})
	return id, nil
}

// Bid submits a bid. The bid takes the lead iff amount is strictly
// greater than the incumbent highest bid; a tie keeps the incumbent.
// The returned flag reports whether the bid is now leading. BidAdded is
// emitted for every accepted submission, leading or not.
func (e *Engine) Bid(caller auction.Account, id auction.ID, amount uint64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.registry.Get(id)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, auction.ErrNotFound
	}
	if rec.Status != auction.StatusOpen {
		return false, auction.ErrClosed
	}

	b := e.kv.NewBatch()
	leading := amount > rec.HighestBid.Amount
	if leading {
		rec.HighestBid = auction.Bid{Bidder: caller, Amount: amount}
		rec.BidHistory = append([]auction.Bid{rec.HighestBid}, rec.BidHistory...)
		if err := e.registry.Put(b, rec); err != nil {
			return false, err
		}
	}

	// The bidder's own entry is refreshed on every submission; the
	// seller's cached copy only changes when the highest bid does.
	if err := e.parties.Touch(b, caller, RoleBuyer, rec.Summary()); err != nil {
		return false, err
	}
	if leading && caller != rec.Seller {
		if err := e.parties.Touch(b, rec.Seller, RoleSeller, rec.Summary()); err != nil {
			return false, err
		}
	}

	if err := e.kv.Commit(b); err != nil {
		return false, fmt.Errorf("commit bid: %w", err)
	}

	e.sink.Publish(auction.BidAdded{
		AuctionID: id,
		Seller:    rec.Seller,
		Quantity:  rec.Quantity,
		Bid:       auction.Bid{Bidder: caller, Amount: amount},
	})
	return leading, nil
}

// Cancel closes an open auction early. Only the seller may cancel.
func (e *Engine) Cancel(caller auction.Account, id auction.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.registry.Get(id)
	if err != nil {
		return err
	}
	if rec == nil {
		return auction.ErrNotFound
	}
	if rec.Status != auction.StatusOpen {
		return auction.ErrClosed
	}
	if caller != rec.Seller {
		return auction.ErrUnauthorized
	}

	b := e.kv.NewBatch()
	e.registry.Delete(b, id)
	e.queue.Unschedule(b, rec.ExpiresAt, id)
	if err := e.parties.Remove(b, rec.Seller, id); err != nil {
		return err
	}

	if err := e.kv.Commit(b); err != nil {
		return fmt.Errorf("commit cancel: %w", err)
	}

	rec.Status = auction.StatusClosed
	e.sink.Publish(auction.Canceled{
		AuctionID:     id,
		Seller:        rec.Seller,
		Quantity:      rec.Quantity,
		StartingPrice: rec.StartingPrice,
		Memo:          rec.Memo,
	})
	return nil
}

// OnTimeStep advances the engine to height and closes every auction
// whose expiry equals it exactly. For each one the highest bidder is
// matched and an execution is recorded; no funds move. An id missing
// from the registry is skipped silently — the tick must never fail
// because of a single stale entry.
func (e *Engine) OnTimeStep(height uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.kv.NewBatch()
	ids, err := e.queue.Drain(b, height)
	if err != nil {
		return err
	}
	return e.close(b, ids, height)
}

// Sweep drains every bucket at or below upTo. It exists for operators
// recovering from a driver that skipped heights; OnTimeStep is the
// normal path.
func (e *Engine) Sweep(upTo uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.kv.NewBatch()
	ids, err := e.queue.DrainThrough(b, upTo)
	if err != nil {
		return err
	}
	return e.close(b, ids, upTo)
}

// close finalizes drained auctions and commits the batch together with
// the height marker. Caller holds e.mu.
func (e *Engine) close(b kv.Batch, ids []auction.ID, height uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, height)
	b.Set(heightKey, buf)

	events := make([]auction.Event, 0, 2*len(ids))
	for _, id := range ids {
		rec, err := e.registry.Get(id)
		if err != nil {
			return err
		}
		if rec == nil {
			continue // cancelled between scheduling and drain
		}
		e.registry.Delete(b, id)
		rec.Status = auction.StatusClosed

		events = append(events,
			auction.Matched{
				AuctionID:     id,
				Seller:        rec.Seller,
				Quantity:      rec.Quantity,
				StartingPrice: rec.StartingPrice,
				HighestBid:    rec.HighestBid,
				MatchedAt:     height,
			},
			auction.Executed{
				AuctionID:        id,
				Seller:           rec.Seller,
				Buyer:            rec.HighestBid.Bidder,
				Quantity:         rec.Quantity,
				StartingPrice:    rec.StartingPrice,
				HighestBidAmount: rec.HighestBid.Amount,
				ExecutedAt:       height,
			},
		)
	}

	if err := e.kv.Commit(b); err != nil {
		return fmt.Errorf("commit time step %d: %w", height, err)
	}
	e.height = height

	for _, ev := range events {
		e.sink.Publish(ev)
	}
	return nil
}

// GetAuction returns the open auction for id, or ErrNotFound.
func (e *Engine) GetAuction(id auction.ID) (*auction.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, auction.ErrNotFound
	}
	return rec, nil
}

// GetParticipant returns the cached index record for account, or
// ErrNotFound if the account never participated.
func (e *Engine) GetParticipant(account auction.Account) (*ParticipantRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.parties.Lookup(account)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, auction.ErrNotFound
	}
	return rec, nil
}
