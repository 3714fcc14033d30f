package kv

import (
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store used by tests and single-node
// experiments. Keys are held in a plain map; scans sort on demand.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *Memory) NewBatch() Batch {
	return &memoryBatch{}
}

func (m *Memory) Commit(b Batch) error {
	mb := b.(*memoryBatch)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range mb.ops {
		if op.delete {
			delete(m.data, op.key)
			continue
		}
		m.data[op.key] = op.value
	}
	return nil
}

func (m *Memory) ScanPrefix(prefix []byte, fn func(key, value []byte) error) error {
	m.mu.RLock()
	p := string(prefix)
	keys := make([]string, 0, 16)
	for k := range m.data {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	type pair struct {
		k string
		v []byte
	}
	pairs := make([]pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, pair{k, m.data[k]})
	}
	m.mu.RUnlock()

	for _, p := range pairs {
		if err := fn([]byte(p.k), p.v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// Len reports the number of stored keys; handy in tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

type memoryOp struct {
	key    string
	value  []byte
	delete bool
}

type memoryBatch struct {
	ops []memoryOp
}

func (b *memoryBatch) Set(key, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	b.ops = append(b.ops, memoryOp{key: string(key), value: v})
}

func (b *memoryBatch) Delete(key []byte) {
	b.ops = append(b.ops, memoryOp{key: string(key), delete: true})
}
