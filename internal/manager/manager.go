package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tensord/internal/dag"
	"tensord/internal/registry"
	"tensord/internal/store"
	"tensord/pkg/types"
)

// State represents the lifecycle state of the manager.
type State string

const (
	StateReady  State = "ready"
	StateClosed State = "closed"
)

type Manager struct {
	mu      sync.RWMutex
	state   State
	lastErr string

	keys    *store.Memory
	models  *registry.Registry
	pool    *dag.Pool
	chainOp string

	maxQueue int
	maxWait  time.Duration

	publisher EventPublisher
	events    *Broadcaster
	log       zerolog.Logger

	runs          atomic.Uint64
	runErrors     atomic.Uint64
	persistErrors atomic.Uint64
	startTime     time.Time
}

// New builds a Manager over reg and keys with default pool settings.
func New(reg *registry.Registry, keys *store.Memory) *Manager {
	return NewWithConfig(ManagerConfig{Registry: reg, Store: keys})
}

// SetEventPublisher installs an additional publisher. Nil restores the
// default, which only feeds subscribers.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}

// Subscribe registers for manager events. The cancel func must be called
// to unsubscribe.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.events.Subscribe()
}

func (m *Manager) publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	m.mu.RLock()
	p := m.publisher
	m.mu.RUnlock()
	p.Publish(e)
	m.events.Publish(e)
}

// Store exposes the keyspace for snapshotting and tests.
func (m *Manager) Store() *store.Memory { return m.keys }

func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady
}

func (m *Manager) ListModels() []types.Model {
	return m.models.List()
}

// Close stops the worker pool after queued runs finish. Subsequent calls
// are no-ops.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	m.state = StateClosed
	m.mu.Unlock()
	m.pool.Close()
	m.events.Close()
	return nil
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
}
