package manager

import (
	"context"

	"github.com/google/uuid"

	"tensord/internal/dag"
	"tensord/pkg/types"
)

// RunDAG parses args as a DAGRUN, executes it and returns the reply.
// An error means the request was rejected as a whole (malformed, unknown
// model, queue full); per-command and per-key failures are reply entries.
func (m *Manager) RunDAG(ctx context.Context, args []string) (types.DagRunResponse, error) {
	if !m.Ready() {
		return types.DagRunResponse{}, ErrClosed
	}
	id := uuid.NewString()
	log := m.log.With().Str("run", id).Logger()

	req, err := dag.ParseRequest(id, args, m.keys, m.models, m.chainOp)
	if err != nil {
		dagRunsTotal.WithLabelValues("rejected").Inc()
		m.publish(Event{Name: "dagrun_rejected", RunID: id, Fields: map[string]any{"error": err.Error()}})
		log.Debug().Err(err).Msg("dagrun rejected")
		return types.DagRunResponse{}, err
	}
	defer req.Release()

	inflightRuns.Inc()
	defer inflightRuns.Dec()
	m.publish(Event{Name: "dagrun_start", RunID: id, Fields: map[string]any{
		"commands": len(req.Commands),
		"persist":  req.Run.Persist.Len(),
	}})

	reply, err := dag.Process(ctx, req, m.pool, m.keys)
	if err != nil {
		label := "rejected"
		if IsTooBusy(err) {
			label = "too_busy"
		}
		dagRunsTotal.WithLabelValues(label).Inc()
		m.publish(Event{Name: "dagrun_not_admitted", RunID: id, Fields: map[string]any{"error": err.Error()}})
		log.Warn().Err(err).Msg("dagrun not admitted")
		return types.DagRunResponse{}, err
	}

	m.runs.Add(1)
	ri := req.Run
	if req.HasModelRun() && ri.DurationUS > 0 {
		dagRunDuration.Observe(float64(ri.DurationUS) / 1e6)
	}
	if ri.Err != nil {
		m.runErrors.Add(1)
		m.setLastError(ri.Err)
		dagRunsTotal.WithLabelValues("error").Inc()
	} else {
		dagRunsTotal.WithLabelValues("ok").Inc()
	}

	resp := types.DagRunResponse{RunID: id, Length: reply.Len()}
	resp.Reply = make([]types.ReplyEntry, 0, len(reply.Entries()))
	persistFailures := 0
	for _, e := range reply.Entries() {
		switch {
		case e.Err != nil:
			if reason := persistFailureReason(e.Err); reason != "" {
				persistFailures++
				persistErrorsTotal.WithLabelValues(reason).Inc()
			}
			resp.Reply = append(resp.Reply, types.ReplyEntry{Error: e.Err.Error()})
		case e.Tensor != nil:
			t := FromHandle(e.Tensor)
			e.Tensor.Release()
			resp.Reply = append(resp.Reply, types.ReplyEntry{Tensor: &t})
		default:
			resp.Reply = append(resp.Reply, types.ReplyEntry{Status: e.Status})
		}
	}
	m.persistErrors.Add(uint64(persistFailures))

	fields := map[string]any{
		"length":         resp.Length,
		"persist_errors": persistFailures,
		"duration_us":    ri.DurationUS,
	}
	if ri.Err != nil {
		fields["error"] = ri.Err.DetailOneline
	}
	m.publish(Event{Name: "dagrun_done", RunID: id, Fields: fields})
	log.Debug().Int("length", resp.Length).Int("persist_errors", persistFailures).Msg("dagrun done")
	return resp, nil
}

func persistFailureReason(err error) string {
	switch {
	case dag.IsPersistNotFound(err):
		return "not_in_scope"
	case dag.IsStoreWrite(err):
		return "write"
	}
	return ""
}
