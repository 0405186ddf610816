package backend

import (
	"errors"
	"strings"
	"testing"

	"tensord/internal/tensor"
)

func mustTensor(t *testing.T, dt tensor.DType, shape []int, vals []float64) *tensor.Handle {
	t.Helper()
	h, err := tensor.New(dt, shape, vals)
	if err != nil {
		t.Fatalf("tensor: %v", err)
	}
	return h
}

func addModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewGraphModel(GraphSpec{
		Name:    "adder",
		Inputs:  []InputSpec{{Name: "a", DType: "float"}, {Name: "b", DType: "float"}},
		Ops:     []OpSpec{{Name: "c", Op: "add", Args: []string{"a", "b"}}, {Name: "d", Op: "mul", Args: []string{"c", "a"}}},
		Outputs: []string{"c", "d"},
	})
	if err != nil {
		t.Fatalf("graph model: %v", err)
	}
	return m
}

func TestGraphModelRun(t *testing.T) {
	m := addModel(t)
	rc, err := NewRunCtx(m)
	if err != nil {
		t.Fatalf("runctx: %v", err)
	}
	b, _ := rc.AddBatch()
	_ = rc.SetInput(b, 0, mustTensor(t, tensor.Float, []int{2}, []float64{1, 2}))
	_ = rc.SetInput(b, 1, mustTensor(t, tensor.Float, []int{2}, []float64{3, 4}))
	if e := rc.Run(); e != nil {
		t.Fatalf("run: %v", e)
	}
	c, d := rc.Output(b, 0), rc.Output(b, 1)
	if got := c.Values(); got[0] != 4 || got[1] != 6 {
		t.Fatalf("c=%v", got)
	}
	if got := d.Values(); got[0] != 4 || got[1] != 12 {
		t.Fatalf("d=%v", got)
	}
	rc.Free()
}

func TestGraphModelDeterministic(t *testing.T) {
	m := addModel(t)
	x := mustTensor(t, tensor.Float, []int{2}, []float64{0.5, -1})
	y := mustTensor(t, tensor.Float, []int{2}, []float64{2, 7})
	var outs []*tensor.Handle
	for i := 0; i < 2; i++ {
		s, err := m.Adapter.Start()
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		o, err := s.Run([]*tensor.Handle{x, y})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		outs = append(outs, o[1])
		_ = s.Close()
	}
	if !outs[0].Equal(outs[1]) {
		t.Fatalf("runs differ: %v vs %v", outs[0].Values(), outs[1].Values())
	}
	// inputs are never mutated by the graph
	if v := x.Values(); v[0] != 0.5 || v[1] != -1 {
		t.Fatalf("input mutated: %v", v)
	}
}

func TestGraphModelMatMul(t *testing.T) {
	m, err := NewGraphModel(GraphSpec{
		Name:    "mm",
		Inputs:  []InputSpec{{Name: "x", Shape: []int{2, 2}}, {Name: "w", Shape: []int{2, 2}}},
		Ops:     []OpSpec{{Name: "y", Op: "MatMul", Args: []string{"x", "w"}}},
		Outputs: []string{"y"},
	})
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	s, _ := m.Adapter.Start()
	out, err := s.Run([]*tensor.Handle{
		mustTensor(t, tensor.Double, []int{2, 2}, []float64{1, 2, 3, 4}),
		mustTensor(t, tensor.Double, []int{2, 2}, []float64{1, 0, 0, 1}),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []float64{1, 2, 3, 4}
	for i, v := range out[0].Values() {
		if v != want[i] {
			t.Fatalf("y=%v", out[0].Values())
		}
	}
}

func TestGraphModelInputChecks(t *testing.T) {
	m := addModel(t)
	s, _ := m.Adapter.Start()
	_, err := s.Run([]*tensor.Handle{
		mustTensor(t, tensor.Double, []int{2}, []float64{1, 2}),
		mustTensor(t, tensor.Float, []int{2}, []float64{1, 2}),
	})
	if err == nil || !strings.Contains(err.Error(), "type mismatch") {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	_, err = s.Run([]*tensor.Handle{
		mustTensor(t, tensor.Float, []int{2}, []float64{1, 2}),
		mustTensor(t, tensor.Float, []int{3}, []float64{1, 2, 3}),
	})
	if err == nil {
		t.Fatalf("expected error adding mismatched shapes")
	}
}

func TestNewGraphModelValidation(t *testing.T) {
	in := []InputSpec{{Name: "a"}}
	cases := map[string]GraphSpec{
		"no name":       {Inputs: in, Outputs: []string{"a"}},
		"no inputs":     {Name: "m", Outputs: []string{"a"}},
		"no outputs":    {Name: "m", Inputs: in},
		"unknown op":    {Name: "m", Inputs: in, Ops: []OpSpec{{Name: "b", Op: "conv", Args: []string{"a"}}}, Outputs: []string{"b"}},
		"arity":         {Name: "m", Inputs: in, Ops: []OpSpec{{Name: "b", Op: "add", Args: []string{"a"}}}, Outputs: []string{"b"}},
		"undefined arg": {Name: "m", Inputs: in, Ops: []OpSpec{{Name: "b", Op: "tanh", Args: []string{"z"}}}, Outputs: []string{"b"}},
		"dup node":      {Name: "m", Inputs: in, Ops: []OpSpec{{Name: "a", Op: "tanh", Args: []string{"a"}}}, Outputs: []string{"a"}},
		"bad output":    {Name: "m", Inputs: in, Outputs: []string{"zz"}},
		"bad dtype":     {Name: "m", Inputs: []InputSpec{{Name: "a", DType: "complex"}}, Outputs: []string{"a"}},
	}
	for name, spec := range cases {
		if _, err := NewGraphModel(spec); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRunCtxCopyBatchIsShallow(t *testing.T) {
	m := addModel(t)
	src, _ := NewRunCtx(m)
	sb, _ := src.AddBatch()
	a := mustTensor(t, tensor.Float, []int{2}, []float64{1, 2})
	_ = src.SetInput(sb, 0, a)

	dst, _ := NewRunCtx(m)
	db, _ := dst.AddBatch()
	if err := dst.CopyBatch(db, src, sb); err != nil {
		t.Fatalf("copy: %v", err)
	}
	got := dst.Batches[db].Inputs[0].Tensor
	if !got.SameBuffer(a) || a.RefCount() != 2 {
		t.Fatalf("expected shared buffer with refcount 2, got %d", a.RefCount())
	}
	if dst.Batches[db].Inputs[1].Tensor != nil {
		t.Fatalf("unset input must stay empty")
	}
	dst.Free()
	if a.RefCount() != 1 {
		t.Fatalf("refcount after free=%d", a.RefCount())
	}
	if err := dst.CopyBatch(5, src, sb); err == nil {
		t.Fatalf("expected error for missing destination batch")
	}
}

func TestRunCtxErrors(t *testing.T) {
	if _, err := NewRunCtx(nil); err == nil {
		t.Fatalf("expected error for nil model")
	}
	m := &Model{Name: "f", Inputs: []string{"x"}, Outputs: []string{"y"},
		Adapter: AdapterFunc(func() (Session, error) {
			return SessionFunc(func([]*tensor.Handle) ([]*tensor.Handle, error) {
				return nil, errors.New("shape mismatch\nat layer 3")
			}), nil
		})}
	rc, _ := NewRunCtx(m)
	if e := rc.Run(); e == nil || e.Code != CodeAlloc {
		t.Fatalf("expected ALLOC for empty context, got %v", e)
	}
	b, _ := rc.AddBatch()
	if e := rc.Run(); e == nil || e.Code != CodeModelRun {
		t.Fatalf("expected MODELRUN for unset input, got %v", e)
	}
	_ = rc.SetInput(b, 0, mustTensor(t, tensor.Float, []int{1}, nil))
	e := rc.Run()
	if e == nil || e.Code != CodeModelRun || e.Detail != "shape mismatch\nat layer 3" || e.DetailOneline != "shape mismatch" {
		t.Fatalf("unexpected error slot %+v", e)
	}
	if rc.Output(b, 0) != nil {
		t.Fatalf("failed run must leave outputs empty")
	}
	for i := 0; i < MaxBatches-1; i++ {
		if _, err := rc.AddBatch(); err != nil {
			t.Fatalf("add batch %d: %v", i, err)
		}
	}
	if _, err := rc.AddBatch(); err == nil {
		t.Fatalf("expected batch limit error")
	}
}

func TestErrorCodeString(t *testing.T) {
	if CodeOK.String() != "OK" || CodeModelRun.String() != "MODELRUN" || CodeAlloc.String() != "ALLOC" {
		t.Fatalf("unexpected code names")
	}
	if NewError(CodeAlloc, "x").Clone().Detail != "x" {
		t.Fatalf("clone lost detail")
	}
	if !IsDependencyUnavailable(ErrDependencyUnavailable("nope")) {
		t.Fatalf("predicate mismatch")
	}
}
