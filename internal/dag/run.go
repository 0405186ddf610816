package dag

import (
	"fmt"
	"sync/atomic"
	"time"

	"tensord/internal/backend"
	"tensord/internal/tensor"
)

// Status is the outcome of a run's model invocation.
type Status int

const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusOK {
		return "OK"
	}
	return "ERROR"
}

// RunInfo is the run descriptor: everything one DAGRUN invocation owns
// between parsing and materialization.
type RunInfo struct {
	ID string

	// ModelCtx is the primary model context. Batch 0 holds the bound inputs
	// and, after Execute, the outputs (a nil tensor is an empty output).
	ModelCtx *backend.RunCtx
	// OutputNames are the scope names the model's outputs are stored under.
	OutputNames []string

	Scope   *TensorContext
	Persist *PersistSet

	Err    *backend.Error
	Status Status
	// DurationUS is the backend call's wall time in microseconds.
	DurationUS int64

	Reply *Reply

	durationSet bool
	done        chan *RunInfo
	resumed     atomic.Bool
}

// NewRunInfo returns an empty descriptor with a fresh scope, persist set and
// reply.
func NewRunInfo(id string) *RunInfo {
	return &RunInfo{
		ID:      id,
		Scope:   NewTensorContext(),
		Persist: NewPersistSet(),
		Reply:   &Reply{},
	}
}

// Suspend registers the caller and returns the channel the descriptor is
// delivered on once Execute completes. It must be called before dispatch.
func (ri *RunInfo) Suspend() <-chan *RunInfo {
	ri.done = make(chan *RunInfo, 1)
	return ri.done
}

// resume delivers the descriptor to a suspended caller, at most once.
func (ri *RunInfo) resume() {
	if ri.done == nil || !ri.resumed.CompareAndSwap(false, true) {
		return
	}
	ri.done <- ri
}

func (ri *RunInfo) setDuration(d time.Duration) {
	if ri.durationSet {
		return
	}
	if d < 0 {
		d = 0
	}
	ri.DurationUS = d.Microseconds()
	ri.durationSet = true
}

func (ri *RunInfo) fail(code backend.Code, detail string) {
	ri.Status = StatusError
	ri.Err = backend.NewError(code, detail)
}

// Prepare builds the primary model context for m and binds the scope
// tensors named by inputs, in order, into batch 0.
func (ri *RunInfo) Prepare(m *backend.Model, inputs, outputs []string) error {
	if m == nil {
		return fmt.Errorf("ERR model is not set")
	}
	if len(inputs) != len(m.Inputs) {
		return syntaxError{msg: fmt.Sprintf("ERR model %s expects %d inputs, got %d", m.Name, len(m.Inputs), len(inputs))}
	}
	if len(outputs) != len(m.Outputs) {
		return syntaxError{msg: fmt.Sprintf("ERR model %s expects %d outputs, got %d", m.Name, len(m.Outputs), len(outputs))}
	}
	rc, err := backend.NewRunCtx(m)
	if err != nil {
		return err
	}
	b, err := rc.AddBatch()
	if err != nil {
		rc.Free()
		return err
	}
	for i, name := range inputs {
		t, ok := ri.Scope.Get(name)
		if !ok {
			rc.Free()
			return keyNotFoundError{key: name}
		}
		in := t.ShallowCopy()
		if err := rc.SetInput(b, i, in); err != nil {
			in.Release()
			rc.Free()
			return err
		}
	}
	if ri.ModelCtx != nil {
		ri.ModelCtx.Free()
	}
	ri.ModelCtx = rc
	ri.OutputNames = append([]string(nil), outputs...)
	return nil
}

// Outputs returns batch 0's outputs. Entries may be nil.
func (ri *RunInfo) Outputs() []*tensor.Handle {
	if ri.ModelCtx == nil || len(ri.ModelCtx.Batches) == 0 {
		return nil
	}
	slots := ri.ModelCtx.Batches[0].Outputs
	out := make([]*tensor.Handle, len(slots))
	for i, s := range slots {
		out[i] = s.Tensor
	}
	return out
}

// CollectOutputs stores every non-empty output in the scope under its
// output name and returns how many were stored.
func (ri *RunInfo) CollectOutputs() int {
	n := 0
	for i, t := range ri.Outputs() {
		if t == nil || i >= len(ri.OutputNames) {
			continue
		}
		ri.Scope.Put(ri.OutputNames[i], t.ShallowCopy())
		n++
	}
	return n
}

// Free releases the model context and the scope.
func (ri *RunInfo) Free() {
	if ri.ModelCtx != nil {
		ri.ModelCtx.Free()
		ri.ModelCtx = nil
	}
	ri.Scope.Release()
}
