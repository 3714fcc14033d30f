package engine

import (
	"encoding/json"
	"fmt"

	"voltex/domain/auction"
	"voltex/infra/kv"
)

// Role records the most recent interaction type of an account, not a
// permanent classification.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// ParticipantRecord caches an account's recent auctions for fast
// lookup. The snapshots are denormalized copies of registry records;
// the engine refreshes them on every interaction. Records are created
// on first interaction and never deleted, even when the list empties.
type ParticipantRecord struct {
	Account  auction.Account   `json:"account"`
	Role     Role              `json:"role"`
	Auctions []auction.Summary `json:"auctions"`
}

// Parties is the bounded per-account index. Capacity is a configuration
// constant; when a touch would exceed it, the oldest entry is evicted.
type Parties struct {
	kv       kv.Store
	capacity int
}

func NewParties(store kv.Store, capacity int) *Parties {
	if capacity <= 0 {
		capacity = DefaultIndexCapacity
	}
	return &Parties{kv: store, capacity: capacity}
}

// Touch ensures a record exists for account, prepends the snapshot to
// its list (replacing a stale snapshot of the same auction), and evicts
// the oldest entry when over capacity.
func (p *Parties) Touch(b kv.Batch, account auction.Account, role Role, snap auction.Summary) error {
	rec, err := p.Lookup(account)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &ParticipantRecord{Account: account}
	}
	rec.Role = role

	kept := make([]auction.Summary, 0, len(rec.Auctions)+1)
	kept = append(kept, snap)
	for _, s := range rec.Auctions {
		if s.ID != snap.ID {
			kept = append(kept, s)
		}
	}
	if len(kept) > p.capacity {
		kept = kept[:p.capacity] // oldest entries sit at the tail
	}
	rec.Auctions = kept
	return p.put(b, rec)
}

// Remove deletes the snapshot for id from account's list if present.
// The record itself persists, possibly empty.
func (p *Parties) Remove(b kv.Batch, account auction.Account, id auction.ID) error {
	rec, err := p.Lookup(account)
	if err != nil || rec == nil {
		return err
	}
	kept := rec.Auctions[:0]
	for _, s := range rec.Auctions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(rec.Auctions) {
		return nil
	}
	rec.Auctions = kept
	return p.put(b, rec)
}

// Lookup returns the record for account, or nil if the account has
// never participated.
func (p *Parties) Lookup(account auction.Account) (*ParticipantRecord, error) {
	raw, ok, err := p.kv.Get(partyKey(account))
	if err != nil {
		return nil, fmt.Errorf("read participant %s: %w", account, err)
	}
	if !ok {
		return nil, nil
	}
	var rec ParticipantRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode participant %s: %w", account, err)
	}
	return &rec, nil
}

func (p *Parties) put(b kv.Batch, rec *ParticipantRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode participant %s: %w", rec.Account, err)
	}
	b.Set(partyKey(rec.Account), raw)
	return nil
}
