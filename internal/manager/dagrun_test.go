package manager

import (
	"strings"
	"testing"

	"tensord/pkg/types"
)

func TestRunDAGModelRunPersist(t *testing.T) {
	m, pub := newTestManager(t)
	mustSet(t, m, "a", floatVec(1, 2))
	mustSet(t, m, "b", floatVec(3, 4))

	resp, err := m.RunDAG(testCtx(t), strings.Fields(
		"DAGRUN LOAD 2 a b PERSIST 1 c |> MODELRUN adder INPUTS a b OUTPUTS c"))
	if err != nil {
		t.Fatalf("RunDAG: %v", err)
	}
	if resp.RunID == "" || resp.Length != 1 || len(resp.Reply) != 1 || resp.Reply[0].Status != "OK" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	got, err := m.TensorGet("c")
	if err != nil {
		t.Fatalf("persisted key: %v", err)
	}
	if !sameValues(got.Values, []float64{4, 6}) {
		t.Fatalf("c=%v, want [4 6]", got.Values)
	}

	st := m.Status()
	if st.RunsTotal != 1 || st.RunErrorsTotal != 0 || st.PersistErrorsTotal != 0 {
		t.Fatalf("status counters: %+v", st)
	}
	runEvents := pub.ForRun(resp.RunID)
	if len(runEvents) < 2 || runEvents[0].Name != "dagrun_start" || runEvents[len(runEvents)-1].Name != "dagrun_done" {
		t.Fatalf("run events out of order: %v", pub.Names())
	}
}

func TestRunDAGTensorGetReply(t *testing.T) {
	m, _ := newTestManager(t)
	resp, err := m.RunDAG(testCtx(t), []string{
		"|>", "TENSORSET", "x", "FLOAT", "2", "VALUES", "5", "6",
		"|>", "TENSORGET", "x",
	})
	if err != nil {
		t.Fatalf("RunDAG: %v", err)
	}
	if resp.Length != 2 || resp.Reply[0].Status != "OK" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	tt := resp.Reply[1].Tensor
	if tt == nil || !sameValues(tt.Values, []float64{5, 6}) {
		t.Fatalf("tensor entry: %+v", resp.Reply[1])
	}
	if len(m.Keys()) != 0 {
		t.Fatalf("scope-only tensors must not reach the keyspace: %v", m.Keys())
	}
}

func TestRunDAGPersistErrors(t *testing.T) {
	m, _ := newTestManager(t)
	resp, err := m.RunDAG(testCtx(t), strings.Fields(
		"PERSIST 2 y missing |> TENSORSET y INT32 1 VALUES 7"))
	if err != nil {
		t.Fatalf("RunDAG: %v", err)
	}
	if resp.Length != 2 {
		t.Fatalf("length=%d, want 2: %+v", resp.Length, resp)
	}
	if resp.Reply[1].Error != "ERR specified persistent key that was not used on DAG" {
		t.Fatalf("persist error entry: %+v", resp.Reply[1])
	}
	if _, err := m.TensorGet("y"); err != nil {
		t.Fatalf("y must be committed despite the other failure: %v", err)
	}
	if st := m.Status(); st.PersistErrorsTotal != 1 {
		t.Fatalf("persist errors: %d", st.PersistErrorsTotal)
	}
}

func TestRunDAGBackendErrorIsReplyEntry(t *testing.T) {
	m, _ := newTestManager(t)
	mustSet(t, m, "a", floatVec(1, 2))
	if err := m.TensorSet("b", types.Tensor{DType: "DOUBLE", Shape: []int{2}, Values: []float64{1, 2}}); err != nil {
		t.Fatalf("TensorSet: %v", err)
	}
	resp, err := m.RunDAG(testCtx(t), strings.Fields(
		"LOAD 2 a b PERSIST 1 c |> MODELRUN adder INPUTS a b OUTPUTS c"))
	if err != nil {
		t.Fatalf("RunDAG: %v", err)
	}
	if len(resp.Reply) != 2 || !strings.HasPrefix(resp.Reply[0].Error, "ERR ") {
		t.Fatalf("expected model error then persist error: %+v", resp.Reply)
	}
	st := m.Status()
	if st.RunErrorsTotal != 1 || st.LastError == "" {
		t.Fatalf("status: %+v", st)
	}
	if _, err := m.TensorGet("c"); !IsNotFound(err) {
		t.Fatalf("failed output must not be persisted: %v", err)
	}
}

func TestRunDAGRejected(t *testing.T) {
	m, pub := newTestManager(t)
	cases := []struct {
		args     string
		notFound bool
	}{
		{"LOAD 1 nope |> TENSORGET nope", false},
		{"LOAD x a |> TENSORGET a", false},
		{"LOAD 1", false},
		{"PERSIST 1 a", false},
		{"|> MODELRUN ghost INPUTS a OUTPUTS b", true},
		{"|> FROB", false},
	}
	for _, c := range cases {
		_, err := m.RunDAG(testCtx(t), strings.Fields(c.args))
		if err == nil {
			t.Fatalf("%q: expected error", c.args)
		}
		if c.notFound {
			if !IsModelNotFound(err) || !IsNotFound(err) {
				t.Fatalf("%q: expected model not found, got %v", c.args, err)
			}
			continue
		}
		if !IsInvalidRequest(err) {
			t.Fatalf("%q: expected invalid request, got %v", c.args, err)
		}
	}
	if rejected := pub.Count("dagrun_rejected"); rejected != len(cases) {
		t.Fatalf("rejected events=%d, want %d", rejected, len(cases))
	}
	if st := m.Status(); st.RunsTotal != 0 {
		t.Fatalf("rejected requests must not count as runs: %d", st.RunsTotal)
	}
}
