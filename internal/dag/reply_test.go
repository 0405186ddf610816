package dag

import (
	"testing"
)

func TestMaterializeIsolatesFailures(t *testing.T) {
	s, rec := newStore(t)
	// c holds a non-tensor value, so the commit for c fails
	_ = s.SetValue("c", "model reference")

	ri := NewRunInfo("m")
	for _, k := range []string{"a", "b", "c"} {
		ri.Persist.Add(k)
	}
	a := vec(t, 1)
	_ = ri.Scope.Add("a", a)
	_ = ri.Scope.Add("c", vec(t, 3))

	n := Materialize(s, ri)
	if n != 2 || ri.Reply.Len() != 2 {
		t.Fatalf("reply length=%d, want 2", n)
	}
	errs := ri.Reply.Errors()
	if !IsPersistNotFound(errs[0]) || errs[0].Error() != "ERR specified persistent key that was not used on DAG" {
		t.Fatalf("first entry=%v", errs[0])
	}
	if !IsStoreWrite(errs[1]) || errs[1].Error() != "ERR could not save tensor" {
		t.Fatalf("second entry=%v", errs[1])
	}
	got, err := s.Get("a")
	if err != nil || !got.SameBuffer(a) {
		t.Fatalf("a not committed: %v", err)
	}
	if len(rec.keys) != 1 || rec.keys[0] != "a" {
		t.Fatalf("only successful commits replicate, got %v", rec.keys)
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	s, _ := newStore(t)
	run := func() {
		ri := NewRunInfo("i")
		ri.Persist.Add("x")
		ri.Persist.Add("y")
		_ = ri.Scope.Add("x", vec(t, 1, 2))
		_ = ri.Scope.Add("y", vec(t, 3))
		if n := Materialize(s, ri); n != 0 {
			t.Fatalf("unexpected errors: %v", ri.Reply.Errors())
		}
	}
	run()
	first := s.Keys()
	x1, _ := s.Get("x")
	run()
	x2, _ := s.Get("x")
	if len(s.Keys()) != len(first) || !x1.Equal(x2) {
		t.Fatalf("second materialize changed the store: %v vs %v", first, s.Keys())
	}
}

func TestReplyFinalize(t *testing.T) {
	r := &Reply{}
	r.AppendStatus("OK")
	r.AppendTensor(vec(t, 1))
	if r.Finalize() != 2 || r.Finalize() != 2 || !r.Finalized() {
		t.Fatalf("finalize must fix the length once")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("append after finalize must panic")
		}
	}()
	r.AppendStatus("late")
}
