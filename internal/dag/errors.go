package dag

import (
	"errors"
	"fmt"

	"tensord/internal/backend"
)

// arityError covers malformed counts and blocks with too few keys.
type arityError struct{ msg string }

func (e arityError) Error() string { return e.msg }

func wrongArity(block string) error {
	return arityError{msg: fmt.Sprintf("ERR wrong number of arguments for '%s' command", block)}
}

func badCount(block string) error {
	return arityError{msg: "ERR invalid or negative value found in number of keys to " + block}
}

// IsArity reports whether err is a LOAD/PERSIST arity violation.
func IsArity(err error) bool {
	var e arityError
	return errors.As(err, &e)
}

// keyNotFoundError is returned when a key is missing from the keyspace or the
// scope, or holds something other than a tensor.
type keyNotFoundError struct {
	key       string
	wrongType bool
}

func (e keyNotFoundError) Error() string {
	if e.wrongType {
		return "WRONGTYPE operation against a key holding the wrong kind of value"
	}
	return "ERR tensor key is empty"
}

// Key returns the key that could not be resolved.
func (e keyNotFoundError) Key() string { return e.key }

func ErrKeyNotFound(key string) error { return keyNotFoundError{key: key} }

func IsKeyNotFound(err error) bool {
	var e keyNotFoundError
	return errors.As(err, &e)
}

type duplicateKeyError struct{ key string }

func (e duplicateKeyError) Error() string {
	return fmt.Sprintf("ERR key %s is already in the DAG scope", e.key)
}

func IsDuplicateKey(err error) bool {
	var e duplicateKeyError
	return errors.As(err, &e)
}

// backendExecutionError surfaces a failed model run in a reply entry.
type backendExecutionError struct{ err *backend.Error }

func (e backendExecutionError) Error() string { return "ERR " + e.err.DetailOneline }

// RunError returns the run's error slot.
func (e backendExecutionError) RunError() *backend.Error { return e.err }

func IsBackendExecution(err error) bool {
	var e backendExecutionError
	return errors.As(err, &e) && e.err.Code == backend.CodeModelRun
}

// IsAllocation reports a run whose sub-context or batch could not be built.
func IsAllocation(err error) bool {
	var e backendExecutionError
	return errors.As(err, &e) && e.err.Code == backend.CodeAlloc
}

func runFailure(e *backend.Error) error { return backendExecutionError{err: e} }

type persistNotFoundError struct{ key string }

func (e persistNotFoundError) Error() string {
	return "ERR specified persistent key that was not used on DAG"
}

func IsPersistNotFound(err error) bool {
	var e persistNotFoundError
	return errors.As(err, &e)
}

type storeWriteError struct {
	key string
	err error
}

func (e storeWriteError) Error() string { return "ERR could not save tensor" }
func (e storeWriteError) Unwrap() error { return e.err }

func IsStoreWrite(err error) bool {
	var e storeWriteError
	return errors.As(err, &e)
}

// tooBusyError signals that the pool could not admit a run in time.
type tooBusyError struct{}

func (tooBusyError) Error() string { return "too busy: run queue is full" }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("run pool is closed")

type modelNotFoundError struct{ name string }

func (e modelNotFoundError) Error() string { return "ERR model not found: " + e.name }

func ErrModelNotFound(name string) error { return modelNotFoundError{name: name} }

func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// syntaxError is a malformed DAGRUN request.
type syntaxError struct{ msg string }

func (e syntaxError) Error() string { return e.msg }

func IsSyntax(err error) bool {
	var e syntaxError
	return errors.As(err, &e)
}
