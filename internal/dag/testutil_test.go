package dag

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"tensord/internal/backend"
	"tensord/internal/store"
	"tensord/internal/tensor"
)

type modelMap map[string]*backend.Model

func (m modelMap) Model(name string) (*backend.Model, error) {
	if mdl, ok := m[name]; ok {
		return mdl, nil
	}
	return nil, ErrModelNotFound(name)
}

type recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *recorder) Replicate(key string, _ *tensor.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

func newStore(t *testing.T) (*store.Memory, *recorder) {
	t.Helper()
	rec := &recorder{}
	return store.NewMemory(rec, zerolog.Nop()), rec
}

func vec(t *testing.T, vals ...float64) *tensor.Handle {
	t.Helper()
	h, err := tensor.New(tensor.Float, []int{len(vals)}, vals)
	if err != nil {
		t.Fatalf("tensor: %v", err)
	}
	return h
}

func funcModel(name string, nin, nout int, fn func([]*tensor.Handle) ([]*tensor.Handle, error)) *backend.Model {
	m := &backend.Model{Name: name, Backend: "test"}
	for i := 0; i < nin; i++ {
		m.Inputs = append(m.Inputs, "in"+string(rune('0'+i)))
	}
	for i := 0; i < nout; i++ {
		m.Outputs = append(m.Outputs, "out"+string(rune('0'+i)))
	}
	m.Adapter = backend.AdapterFunc(func() (backend.Session, error) {
		return backend.SessionFunc(fn), nil
	})
	return m
}

// echoModel returns shallow copies of its inputs.
func echoModel(n int) *backend.Model {
	return funcModel("echo", n, n, func(in []*tensor.Handle) ([]*tensor.Handle, error) {
		out := make([]*tensor.Handle, len(in))
		for i, t := range in {
			out[i] = t.ShallowCopy()
		}
		return out, nil
	})
}

func failingModel(detail string) *backend.Model {
	return funcModel("broken", 1, 1, func([]*tensor.Handle) ([]*tensor.Handle, error) {
		return nil, errors.New(detail)
	})
}

func graphAdder(t *testing.T) *backend.Model {
	t.Helper()
	m, err := backend.NewGraphModel(backend.GraphSpec{
		Name:    "adder",
		Inputs:  []backend.InputSpec{{Name: "a"}, {Name: "b"}},
		Ops:     []backend.OpSpec{{Name: "sum", Op: "add", Args: []string{"a", "b"}}, {Name: "prod", Op: "mul", Args: []string{"a", "b"}}},
		Outputs: []string{"sum", "prod"},
	})
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	return m
}

// graphChain computes c = a+b and d = c*a, so c is both an output and an
// operand of a later op.
func graphChain(t *testing.T) *backend.Model {
	t.Helper()
	m, err := backend.NewGraphModel(backend.GraphSpec{
		Name:    "chain",
		Inputs:  []backend.InputSpec{{Name: "a"}, {Name: "b"}},
		Ops:     []backend.OpSpec{{Name: "c", Op: "add", Args: []string{"a", "b"}}, {Name: "d", Op: "mul", Args: []string{"c", "a"}}},
		Outputs: []string{"c", "d"},
	})
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	return m
}

// prepared returns a descriptor whose scope holds inputs under in0..inN and
// whose model context is bound to m.
func prepared(t *testing.T, m *backend.Model, inputs ...*tensor.Handle) *RunInfo {
	t.Helper()
	ri := NewRunInfo("test")
	names := make([]string, len(inputs))
	for i, h := range inputs {
		names[i] = "in" + string(rune('0'+i))
		if err := ri.Scope.Add(names[i], h.ShallowCopy()); err != nil {
			t.Fatalf("scope: %v", err)
		}
	}
	outs := make([]string, len(m.Outputs))
	for i := range outs {
		outs[i] = "res" + string(rune('0'+i))
	}
	if err := ri.Prepare(m, names, outs); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	return ri
}
