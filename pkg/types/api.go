package types

// DagRunRequest carries a DAGRUN command as tokens.
type DagRunRequest struct {
	// Command tokens, optionally starting with DAGRUN.
	// example: ["LOAD","1","a","PERSIST","1","b","|>","MODELRUN","double","INPUTS","a","OUTPUTS","b"]
	Args []string `json:"args"`
}

// ReplyEntry is one positional DAGRUN reply element. Exactly one of Status,
// Error and Tensor is set.
type ReplyEntry struct {
	// Simple status reply.
	// example: OK
	Status string `json:"status,omitempty" example:"OK"`
	// Error reply.
	// example: ERR could not save tensor
	Error string `json:"error,omitempty" example:"ERR could not save tensor"`
	// Tensor reply (TENSORGET).
	Tensor *Tensor `json:"tensor,omitempty"`
}

// DagRunResponse is returned by POST /dagrun.
type DagRunResponse struct {
	// Identifier of the run, also present in logs and events.
	// example: 1b4e28ba-2fa1-11d2-883f-0016d3cca427
	RunID string `json:"run_id" example:"1b4e28ba-2fa1-11d2-883f-0016d3cca427"`
	// Reply entries in order.
	Reply []ReplyEntry `json:"reply"`
	// Final reply length.
	// example: 1
	Length int `json:"length" example:"1"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of registered models.
	Models []Model `json:"models"`
}

// KeysResponse lists keys in the keyspace.
type KeysResponse struct {
	Keys []string `json:"keys"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// PoolStatus summarizes the run worker pool.
type PoolStatus struct {
	// example: 4
	Workers int `json:"workers" example:"4"`
	// Runs waiting for a worker.
	// example: 0
	QueueDepth int `json:"queue_depth" example:"0"`
	// example: 64
	QueueCap int `json:"queue_cap" example:"64"`
	// Runs currently executing.
	// example: 1
	Active int64 `json:"active" example:"1"`
	// example: 120
	Completed int64 `json:"completed" example:"120"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall state (ready, closed).
	// example: ready
	State string     `json:"state" example:"ready"`
	Pool  PoolStatus `json:"pool"`
	// Number of keys in the keyspace.
	// example: 12
	Keys int `json:"keys" example:"12"`
	// Number of registered models.
	// example: 2
	Models int `json:"models" example:"2"`
	// example: 40
	RunsTotal uint64 `json:"runs_total" example:"40"`
	// example: 1
	RunErrorsTotal uint64 `json:"run_errors_total" example:"1"`
	// example: 3
	PersistErrorsTotal uint64 `json:"persist_errors_total" example:"3"`
	// Last run error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// DeleteResponse is returned by DELETE /tensors/{key}.
type DeleteResponse struct {
	// Whether the key existed.
	// example: true
	Deleted bool `json:"deleted" example:"true"`
}
