package manager

import (
	"tensord/internal/tensor"
	"tensord/pkg/types"
)

// ToHandle builds a tensor from its JSON form. Omitted values produce a zero
// tensor.
func ToHandle(t types.Tensor) (*tensor.Handle, error) {
	dt, err := tensor.ParseDType(t.DType)
	if err != nil {
		return nil, invalidTensorError{err: err}
	}
	h, err := tensor.New(dt, t.Shape, t.Values)
	if err != nil {
		return nil, invalidTensorError{err: err}
	}
	return h, nil
}

// FromHandle returns the JSON form of h. It does not take ownership.
func FromHandle(h *tensor.Handle) types.Tensor {
	return types.Tensor{
		DType:  string(h.DType()),
		Shape:  h.Shape(),
		Values: h.Values(),
	}
}
