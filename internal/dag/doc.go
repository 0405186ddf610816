// Package dag implements the DAGRUN core: the LOAD and PERSIST building
// blocks that populate a run's private scope, the run descriptor, the
// execution engine that performs one model invocation on a worker pool while
// the caller waits, and the materializer that commits persisted tensors back
// into the keyspace one key at a time.
//
// Steps within one run are strictly ordered: parse, dispatch, execute,
// resume, materialize. Nothing orders different runs against each other;
// concurrent runs touching the same keys may interleave their commits.
package dag
