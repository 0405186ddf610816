package backend

// LlamaBackend is the backend name reported for GGUF embedding models.
const LlamaBackend = "llama"

// LlamaConfig configures the llama.cpp embedding backend.
type LlamaConfig struct {
	ContextSize int
	Threads     int
}

func (c LlamaConfig) withDefaults() LlamaConfig {
	if c.ContextSize <= 0 {
		c.ContextSize = 2048
	}
	if c.Threads <= 0 {
		c.Threads = 4
	}
	return c
}

// NewLlamaModel registers a GGUF file as an embedding model. It takes one
// INT32/INT64 token tensor and produces one FLOAT embedding tensor. The
// weights are loaded on first use.
func NewLlamaModel(name, path string, cfg LlamaConfig) *Model {
	return &Model{
		Name:    name,
		Backend: LlamaBackend,
		Path:    path,
		Inputs:  []string{"tokens"},
		Outputs: []string{"embedding"},
		Adapter: newLlamaAdapter(path, cfg.withDefaults()),
	}
}
