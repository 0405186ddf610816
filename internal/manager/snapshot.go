package manager

import (
	"time"

	"tensord/internal/store"
)

// SaveSnapshot writes every tensor in the keyspace to s.
func (m *Manager) SaveSnapshot(s *store.Snapshotter) (int, error) {
	start := time.Now()
	n, err := s.Save(m.keys)
	if err != nil {
		m.setLastError(err)
		m.publish(Event{Name: "snapshot_error", Fields: map[string]any{"path": s.Path(), "error": err.Error()}})
		return n, err
	}
	m.publish(Event{Name: "snapshot_saved", Fields: map[string]any{
		"path":   s.Path(),
		"keys":   n,
		"dur_ms": int(time.Since(start) / time.Millisecond),
	}})
	return n, nil
}

// RestoreSnapshot loads tensors from s into the keyspace. Restored keys are
// not replicated.
func (m *Manager) RestoreSnapshot(s *store.Snapshotter) (int, error) {
	n, err := s.Restore(m.keys)
	if err != nil {
		return n, err
	}
	m.publish(Event{Name: "snapshot_restored", Fields: map[string]any{"path": s.Path(), "keys": n}})
	return n, nil
}
