//go:build !llama

package backend

// Without the llama build tag GGUF models register normally but every run
// fails with a dependency error, keeping default builds CGO-free.

// LlamaBuilt reports whether this binary carries the llama.cpp runtime.
const LlamaBuilt = false

type llamaAdapter struct {
	path string
}

func newLlamaAdapter(path string, _ LlamaConfig) Adapter {
	return &llamaAdapter{path: path}
}

func (a *llamaAdapter) Start() (Session, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
