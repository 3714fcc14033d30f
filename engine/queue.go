package engine

import (
	"voltex/domain/auction"
	"voltex/infra/kv"
)

// queueMarker is the presence value; only the key carries information.
var queueMarker = []byte{1}

// Queue is the time-bucketed index of open auctions by expiry height.
// Exactly one entry exists per open auction.
type Queue struct {
	kv kv.Store
}

func NewQueue(store kv.Store) *Queue {
	return &Queue{kv: store}
}

// Schedule stages one (height, id) entry.
func (q *Queue) Schedule(b kv.Batch, height uint64, id auction.ID) {
	b.Set(queueKey(height, id), queueMarker)
}

// Unschedule stages removal of one entry. Deleting an absent key is a
// no-op, so this is safe to call unconditionally.
func (q *Queue) Unschedule(b kv.Batch, height uint64, id auction.ID) {
	b.Delete(queueKey(height, id))
}

// Drain returns the ids of every entry whose bucket key equals height
// exactly and stages their removal in b. Buckets at other heights are
// untouched; an external driver that skips a height leaves that bucket
// behind for DrainThrough.
func (q *Queue) Drain(b kv.Batch, height uint64) ([]auction.ID, error) {
	var ids []auction.ID
	err := q.kv.ScanPrefix(queuePrefix(height), func(key, _ []byte) error {
		_, id, err := parseQueueKey(key)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		b.Delete(append([]byte(nil), key...))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DrainThrough drains every bucket with height <= upTo. This is the
// explicit sweep for heights the tick driver skipped; the normal path
// is per-height Drain.
func (q *Queue) DrainThrough(b kv.Batch, upTo uint64) ([]auction.ID, error) {
	var ids []auction.ID
	err := q.kv.ScanPrefix(queueRoot, func(key, _ []byte) error {
		h, id, err := parseQueueKey(key)
		if err != nil {
			return err
		}
		if h > upTo {
			return nil
		}
		ids = append(ids, id)
		b.Delete(append([]byte(nil), key...))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Pending returns the ids scheduled at height without mutating the
// bucket.
func (q *Queue) Pending(height uint64) ([]auction.ID, error) {
	var ids []auction.ID
	err := q.kv.ScanPrefix(queuePrefix(height), func(key, _ []byte) error {
		_, id, err := parseQueueKey(key)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
