package engine

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"voltex/domain/auction"
	"voltex/infra/kv"
)

// Registry is the authoritative keyed store of open auctions plus the
// id allocator. It carries no validation logic; the lifecycle owns
// every invariant.
type Registry struct {
	kv kv.Store
}

func NewRegistry(store kv.Store) *Registry {
	return &Registry{kv: store}
}

// AllocateID returns the next unused id and stages the bumped counter
// in b. The allocator is monotonic and never revisits an id, even after
// the auction is removed.
func (r *Registry) AllocateID(b kv.Batch) (auction.ID, error) {
	raw, ok, err := r.kv.Get(nextIDKey)
	if err != nil {
		return 0, fmt.Errorf("read id allocator: %w", err)
	}
	var next uint64
	if ok {
		next = binary.BigEndian.Uint64(raw)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next+1)
	b.Set(nextIDKey, buf)
	return auction.ID(next), nil
}

// Put stages the record under its auction key.
func (r *Registry) Put(b kv.Batch, rec *auction.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode auction %d: %w", rec.ID, err)
	}
	b.Set(auctionKey(rec.ID), raw)
	return nil
}

// Get returns the record for id, or nil if absent.
func (r *Registry) Get(id auction.ID) (*auction.Record, error) {
	raw, ok, err := r.kv.Get(auctionKey(id))
	if err != nil {
		return nil, fmt.Errorf("read auction %d: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	var rec auction.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode auction %d: %w", id, err)
	}
	return &rec, nil
}

func (r *Registry) Contains(id auction.ID) (bool, error) {
	return r.kv.Has(auctionKey(id))
}

func (r *Registry) Delete(b kv.Batch, id auction.ID) {
	b.Delete(auctionKey(id))
}
