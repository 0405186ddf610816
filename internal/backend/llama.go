//go:build llama

package backend

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"tensord/internal/tensor"
)

// LlamaBuilt reports whether this binary carries the llama.cpp runtime.
const LlamaBuilt = true

// llamaAdapter owns one lazily loaded model. llama.cpp contexts are not safe
// for concurrent use, so sessions serialize on mu.
type llamaAdapter struct {
	path string
	cfg  LlamaConfig

	mu    sync.Mutex
	model *llama.LLama
}

func newLlamaAdapter(path string, cfg LlamaConfig) Adapter {
	return &llamaAdapter{path: path, cfg: cfg}
}

func (a *llamaAdapter) Start() (Session, error) {
	if strings.TrimSpace(a.path) == "" {
		return nil, errors.New("model path is empty")
	}
	a.mu.Lock()
	if a.model == nil {
		m, err := llama.New(a.path, llama.EnableEmbeddings, llama.SetContext(a.cfg.ContextSize))
		if err != nil {
			a.mu.Unlock()
			return nil, err
		}
		a.model = m
	}
	return &llamaSession{a: a}, nil
}

type llamaSession struct {
	a *llamaAdapter
}

func (s *llamaSession) Run(inputs []*tensor.Handle) ([]*tensor.Handle, error) {
	if len(inputs) != 1 || inputs[0] == nil {
		return nil, errors.New("embedding model takes exactly one token tensor")
	}
	in := inputs[0]
	if in.DType() != tensor.Int32 && in.DType() != tensor.Int64 {
		return nil, fmt.Errorf("tokens must be INT32 or INT64, got %s", in.DType())
	}
	vals := in.Values()
	tokens := make([]int, len(vals))
	for i, v := range vals {
		tokens[i] = int(v)
	}
	emb, err := s.a.model.TokenEmbeddings(tokens, llama.SetThreads(s.a.cfg.Threads))
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(emb))
	for i, v := range emb {
		out[i] = float64(v)
	}
	h, err := tensor.New(tensor.Float, []int{len(out)}, out)
	if err != nil {
		return nil, err
	}
	return []*tensor.Handle{h}, nil
}

func (s *llamaSession) Close() error {
	s.a.mu.Unlock()
	return nil
}
