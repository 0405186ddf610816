package backend

import "tensord/internal/tensor"

// Adapter abstracts the runtime that executes one model. Concrete
// implementations (gorgonia graphs, llama.cpp embeddings) satisfy it.
type Adapter interface {
	// Start prepares a session for one run context.
	Start() (Session, error)
}

// Session executes a model against positional inputs.
type Session interface {
	// Run returns one tensor per declared output. A nil entry means the
	// backend produced nothing for that position.
	Run(inputs []*tensor.Handle) ([]*tensor.Handle, error)
	// Close releases any resources associated with the session.
	Close() error
}

// AdapterFunc adapts a plain function to Adapter.
type AdapterFunc func() (Session, error)

func (f AdapterFunc) Start() (Session, error) { return f() }

// SessionFunc is a stateless Session.
type SessionFunc func(inputs []*tensor.Handle) ([]*tensor.Handle, error)

func (f SessionFunc) Run(inputs []*tensor.Handle) ([]*tensor.Handle, error) { return f(inputs) }
func (f SessionFunc) Close() error                                          { return nil }

// Model is a registered, runnable model.
type Model struct {
	Name    string
	Backend string
	Path    string
	Inputs  []string
	Outputs []string
	Adapter Adapter
}
