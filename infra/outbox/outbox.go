// Package outbox is the durable hand-off between the engine and the
// executions topic. Every executed match is recorded here before the
// broadcaster attempts delivery, so a crash between matching and
// publishing loses nothing: undelivered records survive restarts and
// are retried until acknowledged.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"voltex/infra/kv"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

type Record struct {
	ID          uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// binary encoding: [state:1][retries:4][lastAttempt:8][payload:...]
func encodeRecord(r Record) []byte {
	buf := make([]byte, 1+4+8+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[13:], r.Payload)
	return buf
}

func decodeRecord(id uint64, b []byte) (Record, error) {
	if len(b) < 13 {
		return Record{}, errors.New("invalid outbox record length")
	}
	payload := make([]byte, len(b)-13)
	copy(payload, b[13:])
	return Record{
		ID:          id,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// -------------------- Outbox --------------------

// Outbox stores undelivered execution records keyed by auction id.
// Auction ids are unique and never reused, which makes them safe
// outbox sequence numbers.
type Outbox struct {
	kv kv.Store
}

func New(store kv.Store) *Outbox {
	return &Outbox{kv: store}
}

// Put inserts a new undelivered record.
func (o *Outbox) Put(id uint64, payload []byte) error {
	b := o.kv.NewBatch()
	b.Set(keyFor(id), encodeRecord(Record{ID: id, State: StateNew, Payload: payload}))
	return o.kv.Commit(b)
}

// MarkSent flags a delivery attempt and bumps the retry counter.
func (o *Outbox) MarkSent(id uint64) error {
	rec, err := o.Get(id)
	if err != nil {
		return err
	}
	rec.State = StateSent
	rec.Retries++
	rec.LastAttempt = time.Now().UnixNano()
	b := o.kv.NewBatch()
	b.Set(keyFor(id), encodeRecord(rec))
	return o.kv.Commit(b)
}

// Ack removes a delivered record.
func (o *Outbox) Ack(id uint64) error {
	b := o.kv.NewBatch()
	b.Delete(keyFor(id))
	return o.kv.Commit(b)
}

// Get returns the record for id.
func (o *Outbox) Get(id uint64) (Record, error) {
	raw, ok, err := o.kv.Get(keyFor(id))
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, fmt.Errorf("outbox record %d not found", id)
	}
	return decodeRecord(id, raw)
}

// ScanUndelivered visits every record not yet acknowledged, in id
// order. The broadcaster retries both fresh records and records whose
// earlier send attempt was never acknowledged.
func (o *Outbox) ScanUndelivered(fn func(rec Record) error) error {
	return o.kv.ScanPrefix([]byte("outbox/"), func(key, value []byte) error {
		id, err := parseKey(key)
		if err != nil {
			return err
		}
		rec, err := decodeRecord(id, value)
		if err != nil {
			return err
		}
		return fn(rec)
	})
}

// -------------------- Helpers --------------------

func keyFor(id uint64) []byte {
	return []byte(fmt.Sprintf("outbox/%020d", id))
}

func parseKey(b []byte) (uint64, error) {
	s := string(b)
	if len(s) <= len("outbox/") {
		return 0, fmt.Errorf("malformed outbox key %q", s)
	}
	return strconv.ParseUint(s[len("outbox/"):], 10, 64)
}
