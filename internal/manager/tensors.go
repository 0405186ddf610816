package manager

import (
	"tensord/pkg/types"
)

// TensorSet stores t at key, replacing any tensor already there.
func (m *Manager) TensorSet(key string, t types.Tensor) error {
	if !m.Ready() {
		return ErrClosed
	}
	h, err := ToHandle(t)
	if err != nil {
		return err
	}
	defer h.Release()
	if err := m.keys.Set(key, h); err != nil {
		return err
	}
	m.publish(Event{Name: "tensor_set", Key: key, Fields: map[string]any{"dtype": t.DType, "shape": h.Shape()}})
	return nil
}

// TensorGet returns the tensor stored at key.
func (m *Manager) TensorGet(key string) (types.Tensor, error) {
	h, err := m.keys.Get(key)
	if err != nil {
		return types.Tensor{}, err
	}
	defer h.Release()
	return FromHandle(h), nil
}

// Del removes key and reports whether it existed.
func (m *Manager) Del(key string) bool {
	if !m.keys.Del(key) {
		return false
	}
	m.publish(Event{Name: "key_deleted", Key: key})
	return true
}

// Keys lists the keyspace in sorted order.
func (m *Manager) Keys() []string { return m.keys.Keys() }
