package backend

import (
	"fmt"

	"tensord/internal/tensor"
)

// MaxBatches bounds the number of batches one run context may hold.
const MaxBatches = 64

// Slot is a named input or output position. A nil Tensor is the explicit
// empty marker.
type Slot struct {
	Name   string
	Tensor *tensor.Handle
}

// Batch holds one set of inputs and the outputs produced for them.
type Batch struct {
	Inputs  []Slot
	Outputs []Slot
}

// RunCtx is a model-run context: the model plus its batches.
type RunCtx struct {
	Model   *Model
	Batches []Batch
}

// NewRunCtx creates an empty run context bound to m.
func NewRunCtx(m *Model) (*RunCtx, error) {
	if m == nil || m.Adapter == nil {
		return nil, fmt.Errorf("cannot create run context: model not initialized")
	}
	return &RunCtx{Model: m}, nil
}

// AddBatch appends an empty batch and returns its id.
func (c *RunCtx) AddBatch() (int, error) {
	if len(c.Batches) >= MaxBatches {
		return -1, fmt.Errorf("cannot add batch: limit of %d reached", MaxBatches)
	}
	b := Batch{
		Inputs:  make([]Slot, len(c.Model.Inputs)),
		Outputs: make([]Slot, len(c.Model.Outputs)),
	}
	for i, n := range c.Model.Inputs {
		b.Inputs[i].Name = n
	}
	for i, n := range c.Model.Outputs {
		b.Outputs[i].Name = n
	}
	c.Batches = append(c.Batches, b)
	return len(c.Batches) - 1, nil
}

// CopyBatch installs shallow copies of src's batch inputs into batch dst.
func (c *RunCtx) CopyBatch(dst int, src *RunCtx, srcBatch int) error {
	if dst < 0 || dst >= len(c.Batches) {
		return fmt.Errorf("cannot copy batch: destination batch %d does not exist", dst)
	}
	if src == nil || srcBatch < 0 || srcBatch >= len(src.Batches) {
		return fmt.Errorf("cannot copy batch: source batch %d does not exist", srcBatch)
	}
	from := src.Batches[srcBatch].Inputs
	to := c.Batches[dst].Inputs
	if len(from) != len(to) {
		return fmt.Errorf("cannot copy batch: %d inputs into %d slots", len(from), len(to))
	}
	for i := range from {
		if from[i].Tensor != nil {
			to[i].Tensor = from[i].Tensor.ShallowCopy()
		}
	}
	return nil
}

func (c *RunCtx) NumInputs() int  { return len(c.Model.Inputs) }
func (c *RunCtx) NumOutputs() int { return len(c.Model.Outputs) }

// SetInput installs t as input i of batch b. The context takes ownership of
// t.
func (c *RunCtx) SetInput(b, i int, t *tensor.Handle) error {
	if b < 0 || b >= len(c.Batches) || i < 0 || i >= len(c.Batches[b].Inputs) {
		return fmt.Errorf("input %d of batch %d out of range", i, b)
	}
	c.Batches[b].Inputs[i].Tensor.Release()
	c.Batches[b].Inputs[i].Tensor = t
	return nil
}

// Output returns output i of batch b, or nil.
func (c *RunCtx) Output(b, i int) *tensor.Handle {
	if b < 0 || b >= len(c.Batches) || i < 0 || i >= len(c.Batches[b].Outputs) {
		return nil
	}
	return c.Batches[b].Outputs[i].Tensor
}

// Run executes every batch. A nil result means success.
func (c *RunCtx) Run() *Error {
	if len(c.Batches) == 0 {
		return NewError(CodeAlloc, "run context has no batches")
	}
	sess, err := c.Model.Adapter.Start()
	if err != nil {
		return NewError(CodeModelRun, err.Error())
	}
	defer func() { _ = sess.Close() }()

	for bi := range c.Batches {
		b := &c.Batches[bi]
		ins := make([]*tensor.Handle, len(b.Inputs))
		for i, s := range b.Inputs {
			if s.Tensor == nil {
				return NewError(CodeModelRun, fmt.Sprintf("input %s is not set", s.Name))
			}
			ins[i] = s.Tensor
		}
		outs, err := sess.Run(ins)
		if err != nil {
			return NewError(CodeModelRun, err.Error())
		}
		if len(outs) > len(b.Outputs) {
			for _, o := range outs {
				o.Release()
			}
			return NewError(CodeModelRun, fmt.Sprintf("model produced %d outputs, expected %d", len(outs), len(b.Outputs)))
		}
		for i, o := range outs {
			b.Outputs[i].Tensor.Release()
			b.Outputs[i].Tensor = o
		}
	}
	return nil
}

// Free releases every tensor the context holds.
func (c *RunCtx) Free() {
	for bi := range c.Batches {
		b := &c.Batches[bi]
		for i := range b.Inputs {
			b.Inputs[i].Tensor.Release()
			b.Inputs[i].Tensor = nil
		}
		for i := range b.Outputs {
			b.Outputs[i].Tensor.Release()
			b.Outputs[i].Tensor = nil
		}
	}
}
