// Package tensor provides the reference-counted tensor handle shared between
// the keyspace, DAG scopes and in-flight runs.
//
// A Handle is immutable once published. ShallowCopy never duplicates the
// underlying buffer; it bumps an atomic reference count and returns a new
// handle observing the same bytes.
package tensor

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	gotensor "gorgonia.org/tensor"
)

// DType names the element types accepted on the command surface.
type DType string

const (
	Float  DType = "FLOAT"
	Double DType = "DOUBLE"
	Int32  DType = "INT32"
	Int64  DType = "INT64"
	Uint8  DType = "UINT8"
)

// ParseDType resolves a case-insensitive type name.
func ParseDType(s string) (DType, error) {
	switch d := DType(strings.ToUpper(strings.TrimSpace(s))); d {
	case Float, Double, Int32, Int64, Uint8:
		return d, nil
	}
	return "", fmt.Errorf("invalid data type %q", s)
}

func (d DType) backend() gotensor.Dtype {
	switch d {
	case Double:
		return gotensor.Float64
	case Int32:
		return gotensor.Int32
	case Int64:
		return gotensor.Int64
	case Uint8:
		return gotensor.Uint8
	default:
		return gotensor.Float32
	}
}

func dtypeOf(dt gotensor.Dtype) (DType, bool) {
	switch dt {
	case gotensor.Float32:
		return Float, true
	case gotensor.Float64:
		return Double, true
	case gotensor.Int32:
		return Int32, true
	case gotensor.Int64:
		return Int64, true
	case gotensor.Uint8:
		return Uint8, true
	}
	return "", false
}

// DefaultMaxElements is the element cap used until SetMaxElements is called.
const DefaultMaxElements = 1 << 24

var maxElements atomic.Int64

func init() { maxElements.Store(DefaultMaxElements) }

// SetMaxElements caps the element count of tensors built by New and Decode.
// n <= 0 restores DefaultMaxElements.
func SetMaxElements(n int64) {
	if n <= 0 {
		n = DefaultMaxElements
	}
	maxElements.Store(n)
}

// ErrTooLarge reports a shape whose element count exceeds the cap.
var ErrTooLarge = errors.New("tensor too large")

// shapeSize returns the element count of shape, failing on non-positive
// dimensions and on products above the cap before they can overflow.
func shapeSize(shape []int) (int, error) {
	limit := maxElements.Load()
	size := int64(1)
	for _, d := range shape {
		if d <= 0 {
			return 0, fmt.Errorf("invalid dimension %d", d)
		}
		if int64(d) > limit/size {
			return 0, fmt.Errorf("%w: shape %v exceeds %d elements", ErrTooLarge, shape, limit)
		}
		size *= int64(d)
	}
	return int(size), nil
}

type buffer struct {
	dense *gotensor.Dense
	refs  atomic.Int64
}

// Handle is one reference to a shared tensor buffer.
type Handle struct {
	buf      *buffer
	released atomic.Bool
}

// FromDense wraps d in a new handle with a reference count of one. The
// caller hands ownership of d to the handle and must not mutate it after.
func FromDense(d *gotensor.Dense) (*Handle, error) {
	if d == nil {
		return nil, fmt.Errorf("nil tensor")
	}
	if _, ok := dtypeOf(d.Dtype()); !ok {
		return nil, fmt.Errorf("unsupported data type %s", d.Dtype())
	}
	b := &buffer{dense: d}
	b.refs.Store(1)
	return &Handle{buf: b}, nil
}

// New builds a tensor of the given type and shape. values may be nil, in
// which case the tensor is zero-filled.
func New(dt DType, shape []int, values []float64) (*Handle, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("tensor shape must have at least one dimension")
	}
	size, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	if values != nil && len(values) != size {
		return nil, fmt.Errorf("wrong number of values: got %d, shape requires %d", len(values), size)
	}
	if values == nil {
		values = make([]float64, size)
	}
	backing, err := backingFor(dt, values)
	if err != nil {
		return nil, err
	}
	d := gotensor.New(gotensor.WithShape(append([]int(nil), shape...)...), gotensor.WithBacking(backing))
	return FromDense(d)
}

func backingFor(dt DType, values []float64) (interface{}, error) {
	switch dt {
	case Float:
		out := make([]float32, len(values))
		for i, v := range values {
			out[i] = float32(v)
		}
		return out, nil
	case Double:
		return append([]float64(nil), values...), nil
	case Int32:
		out := make([]int32, len(values))
		for i, v := range values {
			if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("value %v is not a valid INT32", v)
			}
			out[i] = int32(v)
		}
		return out, nil
	case Int64:
		out := make([]int64, len(values))
		for i, v := range values {
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("value %v is not a valid INT64", v)
			}
			out[i] = int64(v)
		}
		return out, nil
	case Uint8:
		out := make([]uint8, len(values))
		for i, v := range values {
			if v != math.Trunc(v) || v < 0 || v > math.MaxUint8 {
				return nil, fmt.Errorf("value %v is not a valid UINT8", v)
			}
			out[i] = uint8(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("invalid data type %q", dt)
}

// ShallowCopy returns a new handle on the same buffer.
func (h *Handle) ShallowCopy() *Handle {
	h.buf.refs.Add(1)
	return &Handle{buf: h.buf}
}

// Release drops this handle's reference. Releasing twice is a no-op.
func (h *Handle) Release() {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return
	}
	h.buf.refs.Add(-1)
}

// RefCount reports how many live handles share the buffer.
func (h *Handle) RefCount() int64 { return h.buf.refs.Load() }

// SameBuffer reports whether h and o observe the same bytes.
func (h *Handle) SameBuffer(o *Handle) bool {
	return h != nil && o != nil && h.buf == o.buf
}

// Dense exposes the backing tensor. It must be treated as read-only.
func (h *Handle) Dense() *gotensor.Dense { return h.buf.dense }

func (h *Handle) DType() DType {
	dt, _ := dtypeOf(h.buf.dense.Dtype())
	return dt
}

func (h *Handle) Shape() []int {
	return append([]int(nil), h.buf.dense.Shape()...)
}

func (h *Handle) Size() int { return h.buf.dense.Shape().TotalSize() }

// Values returns a float64 copy of the elements in row-major order.
func (h *Handle) Values() []float64 {
	switch data := h.buf.dense.Data().(type) {
	case []float32:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out
	case []float64:
		return append([]float64(nil), data...)
	case []int32:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out
	case []int64:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out
	case []uint8:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out
	case float32:
		return []float64{float64(data)}
	case float64:
		return []float64{data}
	case int32:
		return []float64{float64(data)}
	case int64:
		return []float64{float64(data)}
	case uint8:
		return []float64{float64(data)}
	}
	return nil
}

// Equal compares type, shape and values.
func (h *Handle) Equal(o *Handle) bool {
	if h == nil || o == nil {
		return h == o
	}
	if h.SameBuffer(o) {
		return true
	}
	if h.DType() != o.DType() {
		return false
	}
	hs, os := h.Shape(), o.Shape()
	if len(hs) != len(os) {
		return false
	}
	for i := range hs {
		if hs[i] != os[i] {
			return false
		}
	}
	hv, ov := h.Values(), o.Values()
	if len(hv) != len(ov) {
		return false
	}
	for i := range hv {
		if hv[i] != ov[i] {
			return false
		}
	}
	return true
}

// MarshalBinary encodes the tensor in NumPy .npy format.
func (h *Handle) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.buf.dense.WriteNpy(&buf); err != nil {
		return nil, fmt.Errorf("encode tensor: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a tensor produced by MarshalBinary.
func Decode(b []byte) (*Handle, error) {
	r := bytes.NewReader(b)
	hdr, err := readNpyHeader(r)
	if err != nil {
		return nil, fmt.Errorf("decode tensor: %w", err)
	}
	size, err := shapeSize(hdr.shape)
	if err != nil {
		return nil, fmt.Errorf("decode tensor: %w", err)
	}
	// gorgonia's reader maps '<i8' to Go int and then fails on it.
	if hdr.descr == "<i8" || hdr.descr == "i8" {
		d, err := decodeInt64(r, hdr, size)
		if err != nil {
			return nil, fmt.Errorf("decode tensor: %w", err)
		}
		return FromDense(d)
	}
	d := new(gotensor.Dense)
	if err := d.ReadNpy(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("decode tensor: %w", err)
	}
	return FromDense(d)
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s%v", h.DType(), h.Shape())
}
