// Package store holds the shared keyspace: named tensors (and a few
// non-tensor values such as model references) guarded by per-key locks.
package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"tensord/internal/tensor"
)

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrWrongType is returned when a key holds something other than a tensor.
	ErrWrongType = errors.New("WRONGTYPE operation against a key holding the wrong kind of value")
)

// Getter resolves tensors by key.
type Getter interface {
	// Get returns a shallow copy of the tensor stored at key; the caller owns
	// the returned handle.
	Get(key string) (*tensor.Handle, error)
}

// Entry is a key opened for writing. It holds the key's write lock until
// Close.
type Entry interface {
	Key() string
	Commit(t *tensor.Handle) error
	Close()
}

// Store is the keyspace as seen by the DAG materializer.
type Store interface {
	Getter
	OpenForWrite(key string) (Entry, error)
	Replicate(key string, t *tensor.Handle)
}

type slot struct {
	mu      sync.RWMutex
	val     any
	deleted bool
}

// Memory is the in-process keyspace. The map lock only guards slot lookup;
// reads and writes of a value take the slot's own lock.
type Memory struct {
	mu    sync.RWMutex
	slots map[string]*slot

	repl Replicator
	log  zerolog.Logger
}

// NewMemory creates an empty keyspace. A nil replicator disables
// replication.
func NewMemory(repl Replicator, log zerolog.Logger) *Memory {
	if repl == nil {
		repl = NopReplicator{}
	}
	return &Memory{slots: make(map[string]*slot), repl: repl, log: log}
}

func (m *Memory) lookup(key string) *slot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[key]
}

// Get implements Getter.
func (m *Memory) Get(key string) (*tensor.Handle, error) {
	s := m.lookup(key)
	if s == nil {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deleted || s.val == nil {
		return nil, ErrNotFound
	}
	t, ok := s.val.(*tensor.Handle)
	if !ok {
		return nil, ErrWrongType
	}
	return t.ShallowCopy(), nil
}

// Value returns whatever is stored at key.
func (m *Memory) Value(key string) (any, bool) {
	s := m.lookup(key)
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deleted || s.val == nil {
		return nil, false
	}
	return s.val, true
}

// OpenForWrite locks key for writing, creating it when absent.
func (m *Memory) OpenForWrite(key string) (Entry, error) {
	if key == "" {
		return nil, errors.New("empty key")
	}
	for {
		m.mu.Lock()
		s := m.slots[key]
		if s == nil {
			s = &slot{}
			m.slots[key] = s
		}
		m.mu.Unlock()

		s.mu.Lock()
		if !s.deleted {
			return &entry{key: key, s: s}, nil
		}
		// Lost a race with Del; the slot was unlinked, retry with a fresh one.
		s.mu.Unlock()
	}
}

type entry struct {
	key    string
	s      *slot
	closed bool
}

func (e *entry) Key() string { return e.key }

// Commit overwrites the stored value with a shallow copy of t.
func (e *entry) Commit(t *tensor.Handle) error {
	if e.closed {
		return errors.New("entry is closed")
	}
	if t == nil {
		return errors.New("nil tensor")
	}
	switch old := e.s.val.(type) {
	case nil:
	case *tensor.Handle:
		old.Release()
	default:
		return ErrWrongType
	}
	e.s.val = t.ShallowCopy()
	return nil
}

func (e *entry) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.s.mu.Unlock()
}

// Replicate forwards a committed write to the replication channel. Failures
// are logged; the local commit stands.
func (m *Memory) Replicate(key string, t *tensor.Handle) {
	if err := m.repl.Replicate(key, t); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("replication failed")
	}
}

// Set stores t at key (TENSORSET) and replicates it.
func (m *Memory) Set(key string, t *tensor.Handle) error {
	e, err := m.OpenForWrite(key)
	if err != nil {
		return err
	}
	err = e.Commit(t)
	e.Close()
	if err != nil {
		return err
	}
	m.Replicate(key, t)
	return nil
}

// SetValue stores a non-tensor value, replacing anything at key.
func (m *Memory) SetValue(key string, v any) error {
	if _, ok := v.(*tensor.Handle); ok {
		return errors.New("use Set for tensors")
	}
	e, err := m.OpenForWrite(key)
	if err != nil {
		return err
	}
	ent := e.(*entry)
	if old, ok := ent.s.val.(*tensor.Handle); ok {
		old.Release()
	}
	ent.s.val = v
	ent.Close()
	return nil
}

// Del removes key and reports whether it existed.
func (m *Memory) Del(key string) bool {
	m.mu.Lock()
	s := m.slots[key]
	delete(m.slots, key)
	m.mu.Unlock()
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existed := s.val != nil
	if t, ok := s.val.(*tensor.Handle); ok {
		t.Release()
	}
	s.val = nil
	s.deleted = true
	return existed
}

// Keys returns the keys holding a value, sorted.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.slots))
	slots := make([]*slot, 0, len(m.slots))
	for k, s := range m.slots {
		keys = append(keys, k)
		slots = append(slots, s)
	}
	m.mu.RUnlock()

	out := keys[:0]
	for i, s := range slots {
		s.mu.RLock()
		live := !s.deleted && s.val != nil
		s.mu.RUnlock()
		if live {
			out = append(out, keys[i])
		}
	}
	sort.Strings(out)
	return out
}

func (m *Memory) Len() int { return len(m.Keys()) }

// RangeTensors calls fn for every tensor key in sorted order until fn
// returns false. fn receives a shallow copy it must release.
func (m *Memory) RangeTensors(fn func(key string, t *tensor.Handle) bool) {
	for _, k := range m.Keys() {
		t, err := m.Get(k)
		if err != nil {
			continue
		}
		if !fn(k, t) {
			return
		}
	}
}
