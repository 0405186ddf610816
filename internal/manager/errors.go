package manager

import (
	"context"
	"errors"

	"tensord/internal/backend"
	"tensord/internal/dag"
	"tensord/internal/store"
)

// ErrClosed is returned by operations on a closed manager.
var ErrClosed = errors.New("manager is closed")

// invalidTensorError wraps a malformed tensor payload for 400 mapping.
type invalidTensorError struct{ err error }

func (e invalidTensorError) Error() string { return "invalid tensor: " + e.err.Error() }
func (e invalidTensorError) Unwrap() error { return e.err }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool { return dag.IsTooBusy(err) }

// IsNotFound reports a missing key or model (return 404).
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || dag.IsModelNotFound(err)
}

// IsModelNotFound reports whether the error indicates a missing model name.
func IsModelNotFound(err error) bool { return dag.IsModelNotFound(err) }

// IsInvalidRequest reports errors caused by the request itself: malformed
// DAGRUN arguments, bad tensors and wrong-type keys (return 400).
func IsInvalidRequest(err error) bool {
	var it invalidTensorError
	switch {
	case errors.As(err, &it):
		return true
	case errors.Is(err, store.ErrWrongType):
		return true
	}
	return dag.IsArity(err) || dag.IsSyntax(err) || dag.IsKeyNotFound(err) || dag.IsDuplicateKey(err)
}

// IsUnavailable reports a closed manager, a stopped pool or a backend that
// is not built in (return 503).
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrClosed) || errors.Is(err, dag.ErrPoolClosed) || backend.IsDependencyUnavailable(err)
}

// IsCanceled reports a caller that gave up before the run was admitted.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
