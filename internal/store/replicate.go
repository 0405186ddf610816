package store

import (
	"errors"

	"tensord/internal/tensor"
)

// Replicator propagates committed tensors to secondary copies.
type Replicator interface {
	Replicate(key string, t *tensor.Handle) error
}

// NopReplicator drops every write.
type NopReplicator struct{}

func (NopReplicator) Replicate(string, *tensor.Handle) error { return nil }

// ReplicatorFunc adapts a function to Replicator.
type ReplicatorFunc func(key string, t *tensor.Handle) error

func (f ReplicatorFunc) Replicate(key string, t *tensor.Handle) error { return f(key, t) }

// Multi fans a write out to every replicator, joining their errors.
type Multi []Replicator

func (m Multi) Replicate(key string, t *tensor.Handle) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Replicate(key, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
