package manager

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tensord/internal/backend"
	"tensord/internal/registry"
	"tensord/internal/store"
	"tensord/pkg/types"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// adderRegistry registers "adder": sum = a + b over FLOAT vectors.
func adderRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	mdl, err := backend.NewGraphModel(backend.GraphSpec{
		Name:    "adder",
		Inputs:  []backend.InputSpec{{Name: "a", DType: "FLOAT"}, {Name: "b", DType: "FLOAT"}},
		Ops:     []backend.OpSpec{{Name: "sum", Op: "add", Args: []string{"a", "b"}}},
		Outputs: []string{"sum"},
	})
	if err != nil {
		t.Fatalf("graph model: %v", err)
	}
	reg := registry.New()
	if err := reg.Register(mdl); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func newTestManager(t *testing.T) (*Manager, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	m := NewWithConfig(ManagerConfig{
		Registry:  adderRegistry(t),
		Store:     store.NewMemory(nil, zerolog.Nop()),
		Workers:   2,
		MaxWait:   time.Second,
		Publisher: pub,
		Log:       zerolog.Nop(),
	})
	t.Cleanup(func() { _ = m.Close() })
	return m, pub
}

func floatVec(vals ...float64) types.Tensor {
	return types.Tensor{DType: "FLOAT", Shape: []int{len(vals)}, Values: vals}
}

func mustSet(t *testing.T, m *Manager, key string, tt types.Tensor) {
	t.Helper()
	if err := m.TensorSet(key, tt); err != nil {
		t.Fatalf("TensorSet %s: %v", key, err)
	}
}

func sameValues(got, want []float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
