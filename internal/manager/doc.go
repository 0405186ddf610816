// Package manager coordinates the keyspace, the model registry and the run
// worker pool behind the HTTP surface. It is structured into small files by
// concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - dagrun.go: RunDAG, the DAGRUN entry point.
//   - tensors.go: direct keyspace operations (set, get, delete, list).
//   - convert.go: JSON tensor form to and from tensor handles.
//   - events.go: Event, EventPublisher and the in-process Broadcaster.
//   - errors.go: error predicates used by the HTTP layer for status mapping.
//   - metrics.go: Prometheus collectors for runs and persistence.
//   - status_report.go: Status reporting.
//   - snapshot.go: keyspace snapshot save/restore.
//
// External packages should treat this package as the orchestration layer and
// use public methods only.
package manager
