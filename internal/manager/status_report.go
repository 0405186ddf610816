package manager

import (
	"time"

	"tensord/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	ps := m.pool.Stats()
	m.mu.RLock()
	state, lastErr := m.state, m.lastErr
	m.mu.RUnlock()
	now := time.Now()
	return types.StatusResponse{
		State: string(state),
		Pool: types.PoolStatus{
			Workers:    ps.Workers,
			QueueDepth: ps.QueueDepth,
			QueueCap:   ps.QueueCap,
			Active:     ps.Active,
			Completed:  ps.Completed,
		},
		Keys:               m.keys.Len(),
		Models:             m.models.Len(),
		RunsTotal:          m.runs.Load(),
		RunErrorsTotal:     m.runErrors.Load(),
		PersistErrorsTotal: m.persistErrors.Load(),
		LastError:          lastErr,
		UptimeSeconds:      int64(now.Sub(m.startTime) / time.Second),
		ServerTimeUnix:     now.Unix(),
	}
}
