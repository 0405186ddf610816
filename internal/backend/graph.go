package backend

import (
	"fmt"
	"strings"

	"gorgonia.org/gorgonia"
	gotensor "gorgonia.org/tensor"

	"tensord/internal/tensor"
)

// InputSpec declares a graph input. DType and Shape are optional; when set,
// inputs are checked against them before the graph is built.
type InputSpec struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	DType string `json:"dtype,omitempty" yaml:"dtype,omitempty" toml:"dtype,omitempty"`
	Shape []int  `json:"shape,omitempty" yaml:"shape,omitempty" toml:"shape,omitempty"`
}

// OpSpec is one graph node: Name = Op(Args...).
type OpSpec struct {
	Name string   `json:"name" yaml:"name" toml:"name"`
	Op   string   `json:"op" yaml:"op" toml:"op"`
	Args []string `json:"args" yaml:"args" toml:"args"`
}

// GraphSpec is the declarative form of a gorgonia-backed model.
type GraphSpec struct {
	Name    string      `json:"name" yaml:"name" toml:"name"`
	Inputs  []InputSpec `json:"inputs" yaml:"inputs" toml:"inputs"`
	Ops     []OpSpec    `json:"ops" yaml:"ops" toml:"ops"`
	Outputs []string    `json:"outputs" yaml:"outputs" toml:"outputs"`
}

type graphOp struct {
	arity int
	build func(args []*gorgonia.Node) (*gorgonia.Node, error)
}

func unary(f func(*gorgonia.Node) (*gorgonia.Node, error)) graphOp {
	return graphOp{arity: 1, build: func(a []*gorgonia.Node) (*gorgonia.Node, error) { return f(a[0]) }}
}

func binary(f func(a, b *gorgonia.Node) (*gorgonia.Node, error)) graphOp {
	return graphOp{arity: 2, build: func(a []*gorgonia.Node) (*gorgonia.Node, error) { return f(a[0], a[1]) }}
}

var graphOps = map[string]graphOp{
	"add":     binary(gorgonia.Add),
	"sub":     binary(gorgonia.Sub),
	"mul":     binary(gorgonia.HadamardProd),
	"matmul":  binary(gorgonia.Mul),
	"tanh":    unary(gorgonia.Tanh),
	"sigmoid": unary(gorgonia.Sigmoid),
	"relu":    unary(gorgonia.Rectify),
	"neg":     unary(gorgonia.Neg),
	"square":  unary(gorgonia.Square),
	"sum": unary(func(a *gorgonia.Node) (*gorgonia.Node, error) {
		return gorgonia.Sum(a)
	}),
}

// GraphBackend is the backend name reported for graph models.
const GraphBackend = "gorgonia"

// NewGraphModel validates spec and returns a model that builds a fresh
// expression graph for every session, so concurrent runs never share nodes.
func NewGraphModel(spec GraphSpec) (*Model, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("graph model has no name")
	}
	if len(spec.Inputs) == 0 {
		return nil, fmt.Errorf("graph model %s: no inputs", spec.Name)
	}
	if len(spec.Outputs) == 0 {
		return nil, fmt.Errorf("graph model %s: no outputs", spec.Name)
	}
	defined := make(map[string]bool)
	inputs := make([]string, 0, len(spec.Inputs))
	for _, in := range spec.Inputs {
		if in.Name == "" || defined[in.Name] {
			return nil, fmt.Errorf("graph model %s: invalid or duplicate input %q", spec.Name, in.Name)
		}
		if in.DType != "" {
			if _, err := tensor.ParseDType(in.DType); err != nil {
				return nil, fmt.Errorf("graph model %s: input %s: %w", spec.Name, in.Name, err)
			}
		}
		defined[in.Name] = true
		inputs = append(inputs, in.Name)
	}
	for _, op := range spec.Ops {
		def, ok := graphOps[strings.ToLower(op.Op)]
		if !ok {
			return nil, fmt.Errorf("graph model %s: unknown op %q", spec.Name, op.Op)
		}
		if len(op.Args) != def.arity {
			return nil, fmt.Errorf("graph model %s: op %s takes %d args, got %d", spec.Name, op.Op, def.arity, len(op.Args))
		}
		for _, a := range op.Args {
			if !defined[a] {
				return nil, fmt.Errorf("graph model %s: op %s references undefined %q", spec.Name, op.Name, a)
			}
		}
		if op.Name == "" || defined[op.Name] {
			return nil, fmt.Errorf("graph model %s: invalid or duplicate node %q", spec.Name, op.Name)
		}
		defined[op.Name] = true
	}
	for _, o := range spec.Outputs {
		if !defined[o] {
			return nil, fmt.Errorf("graph model %s: output %q is not defined", spec.Name, o)
		}
	}
	s := spec
	return &Model{
		Name:    spec.Name,
		Backend: GraphBackend,
		Inputs:  inputs,
		Outputs: append([]string(nil), spec.Outputs...),
		Adapter: AdapterFunc(func() (Session, error) { return &graphSession{spec: s}, nil }),
	}, nil
}

type graphSession struct {
	spec GraphSpec
}

func (s *graphSession) Close() error { return nil }

func (s *graphSession) Run(inputs []*tensor.Handle) (outs []*tensor.Handle, err error) {
	if len(inputs) != len(s.spec.Inputs) {
		return nil, fmt.Errorf("expected %d inputs, got %d", len(s.spec.Inputs), len(inputs))
	}
	// gorgonia panics on some malformed graphs; surface those as run errors.
	defer func() {
		if r := recover(); r != nil {
			for _, o := range outs {
				o.Release()
			}
			outs, err = nil, fmt.Errorf("%v", r)
		}
	}()

	g := gorgonia.NewGraph()
	nodes := make(map[string]*gorgonia.Node, len(s.spec.Inputs)+len(s.spec.Ops))
	for i, in := range s.spec.Inputs {
		h := inputs[i]
		if err := checkInput(in, h); err != nil {
			return nil, err
		}
		// The VM may reuse operand memory, so the graph gets its own copy.
		d := h.Dense().Clone().(*gotensor.Dense)
		nodes[in.Name] = gorgonia.NewTensor(g, d.Dtype(), d.Dims(),
			gorgonia.WithShape(d.Shape()...),
			gorgonia.WithName(in.Name),
			gorgonia.WithValue(d),
		)
	}
	for _, op := range s.spec.Ops {
		args := make([]*gorgonia.Node, len(op.Args))
		for i, a := range op.Args {
			args[i] = nodes[a]
		}
		n, err := graphOps[strings.ToLower(op.Op)].build(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.Name, err)
		}
		nodes[op.Name] = n
	}
	// The tape reuses buffers of intermediate nodes, so an output that also
	// feeds a later op must be cloned when it is computed, not after RunAll.
	vals := make([]gorgonia.Value, len(s.spec.Outputs))
	for i, name := range s.spec.Outputs {
		gorgonia.Read(nodes[name], &vals[i])
	}

	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return nil, err
	}

	outs = make([]*tensor.Handle, len(s.spec.Outputs))
	for i, name := range s.spec.Outputs {
		h, err := valueToHandle(vals[i])
		if err != nil {
			for _, o := range outs {
				o.Release()
			}
			return nil, fmt.Errorf("output %s: %w", name, err)
		}
		outs[i] = h
	}
	return outs, nil
}

func checkInput(in InputSpec, h *tensor.Handle) error {
	if h == nil {
		return fmt.Errorf("input %s is not set", in.Name)
	}
	if in.DType != "" {
		want, _ := tensor.ParseDType(in.DType)
		if h.DType() != want {
			return fmt.Errorf("input %s: type mismatch: got %s, want %s", in.Name, h.DType(), want)
		}
	}
	if len(in.Shape) > 0 {
		got := h.Shape()
		if len(got) != len(in.Shape) {
			return fmt.Errorf("input %s: shape mismatch: got %v, want %v", in.Name, got, in.Shape)
		}
		for i := range got {
			if in.Shape[i] > 0 && got[i] != in.Shape[i] {
				return fmt.Errorf("input %s: shape mismatch: got %v, want %v", in.Name, got, in.Shape)
			}
		}
	}
	return nil
}

func valueToHandle(v gorgonia.Value) (*tensor.Handle, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case *gotensor.Dense:
		return tensor.FromDense(v.Clone().(*gotensor.Dense))
	case *gorgonia.F32:
		return tensor.New(tensor.Float, []int{1}, []float64{float64(*v)})
	case *gorgonia.F64:
		return tensor.New(tensor.Double, []int{1}, []float64{float64(*v)})
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}
