package tensor

import (
	"errors"
	"sync"
	"testing"
)

func mustNew(t *testing.T, dt DType, shape []int, values []float64) *Handle {
	t.Helper()
	h, err := New(dt, shape, values)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return h
}

func TestShallowCopySharesBuffer(t *testing.T) {
	h := mustNew(t, Float, []int{2, 2}, []float64{1, 2, 3, 4})
	c := h.ShallowCopy()
	if !h.SameBuffer(c) {
		t.Fatalf("shallow copy must share the buffer")
	}
	if h.RefCount() != 2 {
		t.Fatalf("refcount=%d, want 2", h.RefCount())
	}
	c.Release()
	c.Release() // double release is a no-op
	if h.RefCount() != 1 {
		t.Fatalf("refcount after release=%d, want 1", h.RefCount())
	}
}

func TestConcurrentShallowCopy(t *testing.T) {
	h := mustNew(t, Double, []int{3}, []float64{1, 2, 3})
	var wg sync.WaitGroup
	copies := make([]*Handle, 64)
	for i := range copies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			copies[i] = h.ShallowCopy()
			_ = copies[i].Values()
		}(i)
	}
	wg.Wait()
	if h.RefCount() != 65 {
		t.Fatalf("refcount=%d, want 65", h.RefCount())
	}
	for _, c := range copies {
		c.Release()
	}
	if h.RefCount() != 1 {
		t.Fatalf("refcount=%d, want 1", h.RefCount())
	}
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name   string
		dt     DType
		shape  []int
		values []float64
	}{
		{"no dims", Float, nil, nil},
		{"zero dim", Float, []int{0}, nil},
		{"count mismatch", Float, []int{2}, []float64{1}},
		{"fractional int", Int32, []int{1}, []float64{1.5}},
		{"uint8 overflow", Uint8, []int{1}, []float64{300}},
	}
	for _, c := range cases {
		if _, err := New(c.dt, c.shape, c.values); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}

func TestParseArgs(t *testing.T) {
	h, err := ParseArgs([]string{"float", "2", "2", "VALUES", "1", "2", "3", "4"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.DType() != Float || len(h.Shape()) != 2 || h.Size() != 4 {
		t.Fatalf("unexpected tensor %s", h)
	}
	if v := h.Values(); v[3] != 4 {
		t.Fatalf("values=%v", v)
	}

	z, err := ParseArgs([]string{"INT64", "3"})
	if err != nil {
		t.Fatalf("parse zero: %v", err)
	}
	for _, v := range z.Values() {
		if v != 0 {
			t.Fatalf("expected zero tensor, got %v", z.Values())
		}
	}

	if _, err := ParseArgs([]string{"BOGUS", "1"}); err == nil {
		t.Fatalf("expected dtype error")
	}
	if _, err := ParseArgs([]string{"FLOAT", "x"}); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestEqual(t *testing.T) {
	a := mustNew(t, Float, []int{2}, []float64{1, 2})
	b := mustNew(t, Float, []int{2}, []float64{1, 2})
	c := mustNew(t, Double, []int{2}, []float64{1, 2})
	d := mustNew(t, Float, []int{1, 2}, []float64{1, 2})
	if !a.Equal(b) {
		t.Fatalf("equal tensors reported different")
	}
	if a.Equal(c) || a.Equal(d) {
		t.Fatalf("dtype/shape differences must not compare equal")
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, dt := range []DType{Float, Double, Int32, Int64} {
		h := mustNew(t, dt, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
		b, err := h.MarshalBinary()
		if err != nil {
			t.Fatalf("%s marshal: %v", dt, err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("%s decode: %v", dt, err)
		}
		if !got.Equal(h) {
			t.Fatalf("%s round trip mismatch: %v vs %v", dt, got.Values(), h.Values())
		}
	}
}

func TestShapeLimits(t *testing.T) {
	cases := [][]string{
		{"FLOAT", "3037000500", "3037000500"},
		{"FLOAT", "4611686018427387904", "4"},
		{"DOUBLE", "100000", "100000"},
	}
	for _, args := range cases {
		if _, err := ParseArgs(args); !errors.Is(err, ErrTooLarge) {
			t.Fatalf("%v: expected ErrTooLarge, got %v", args, err)
		}
	}

	SetMaxElements(4)
	defer SetMaxElements(0)
	if _, err := New(Float, []int{2, 2}, nil); err != nil {
		t.Fatalf("shape at the cap: %v", err)
	}
	if _, err := New(Float, []int{5}, nil); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge above the cap, got %v", err)
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	h := mustNew(t, Int64, []int{2}, []float64{-7, 9})
	b, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Decode(b[:len(b)-3]); err == nil {
		t.Fatalf("expected error for truncated INT64 data")
	}
	if _, err := Decode([]byte("not a tensor")); err == nil {
		t.Fatalf("expected error for a non-npy payload")
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.DType() != Int64 || !got.Equal(h) {
		t.Fatalf("decoded %s %v, want INT64 [-7 9]", got, got.Values())
	}
}
