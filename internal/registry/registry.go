// Package registry discovers model definitions on disk and resolves models
// by name for MODELRUN.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"tensord/internal/backend"
	"tensord/internal/dag"
	"tensord/pkg/types"
)

// Registry is a concurrency-safe name → model map.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*backend.Model
}

func New() *Registry {
	return &Registry{models: make(map[string]*backend.Model)}
}

// Register adds m. Names are unique.
func (r *Registry) Register(m *backend.Model) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("model has no name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.models[m.Name]; ok {
		return fmt.Errorf("duplicate model name %q (%s and %s)", m.Name, prev.Path, m.Path)
	}
	r.models[m.Name] = m
	return nil
}

// Model implements dag.ModelResolver.
func (r *Registry) Model(name string) (*backend.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.models[name]; ok {
		return m, nil
	}
	return nil, dag.ErrModelNotFound(name)
}

// List returns the registered models sorted by name.
func (r *Registry) List() []types.Model {
	r.mu.RLock()
	out := make([]types.Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, types.Model{
			Name:    m.Name,
			Backend: m.Backend,
			Path:    m.Path,
			Inputs:  append([]string(nil), m.Inputs...),
			Outputs: append([]string(nil), m.Outputs...),
		})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
