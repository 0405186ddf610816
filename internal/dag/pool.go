package dag

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Pool defaults.
const (
	DefaultWorkers    = 4
	DefaultQueueDepth = 64
	DefaultMaxWait    = 5 * time.Second
)

// PoolConfig configures a Pool. Zero values select the defaults.
type PoolConfig struct {
	Workers    int
	QueueDepth int
	// MaxWait bounds how long Submit waits for a queue slot.
	MaxWait time.Duration
	Log     zerolog.Logger
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueDepth int   `json:"queue_depth"`
	QueueCap   int   `json:"queue_cap"`
	Active     int64 `json:"active"`
	Completed  int64 `json:"completed"`
}

// Pool executes run descriptors on a fixed set of worker goroutines. Each
// submitted descriptor is executed and resumed by exactly one worker.
type Pool struct {
	queue   chan *RunInfo
	workers int
	maxWait time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	active    atomic.Int64
	completed atomic.Int64
}

// NewPool starts the workers.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	p := &Pool{
		queue:   make(chan *RunInfo, cfg.QueueDepth),
		workers: cfg.Workers,
		maxWait: cfg.MaxWait,
		log:     cfg.Log,
	}
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.work(i)
	}
	return p
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for ri := range p.queue {
		p.active.Add(1)
		Execute(ri)
		p.active.Add(-1)
		p.completed.Add(1)
		p.log.Debug().Int("worker", id).Str("run", ri.ID).Str("status", ri.Status.String()).
			Int64("duration_us", ri.DurationUS).Msg("run executed")
	}
}

// Submit suspends the caller on ri and queues it. ctx and MaxWait bound only
// admission; once queued the run always completes and is delivered on the
// returned channel.
func (p *Pool) Submit(ctx context.Context, ri *RunInfo) (<-chan *RunInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := ri.Suspend()
	timer := time.NewTimer(p.maxWait)
	defer timer.Stop()
	select {
	case p.queue <- ri:
		return done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, tooBusyError{}
	}
}

// Run submits ri and blocks until it has been executed.
func (p *Pool) Run(ctx context.Context, ri *RunInfo) (*RunInfo, error) {
	done, err := p.Submit(ctx, ri)
	if err != nil {
		return nil, err
	}
	return <-done, nil
}

// Close stops accepting runs, lets queued runs finish and waits for the
// workers to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		QueueDepth: len(p.queue),
		QueueCap:   cap(p.queue),
		Active:     p.active.Load(),
		Completed:  p.completed.Load(),
	}
}
