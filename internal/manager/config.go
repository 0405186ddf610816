package manager

import (
	"time"

	"github.com/rs/zerolog"

	"tensord/internal/dag"
	"tensord/internal/registry"
	"tensord/internal/store"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultWorkers       = dag.DefaultWorkers
	defaultMaxQueueDepth = dag.DefaultQueueDepth
	defaultMaxWait       = dag.DefaultMaxWait
	defaultEventBuffer   = 64
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Registry resolves MODELRUN names. Nil means an empty registry.
	Registry *registry.Registry
	// Store is the keyspace. Nil means a fresh in-memory keyspace without
	// replication.
	Store *store.Memory

	Workers       int
	MaxQueueDepth int
	MaxWait       time.Duration
	// ChainingOp separates DAGRUN commands; "|>" when empty.
	ChainingOp string

	Publisher EventPublisher
	// EventBuffer is the per-subscriber channel size of the broadcaster.
	EventBuffer int
	Log         zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig and starts its
// worker pool.
func NewWithConfig(cfg ManagerConfig) *Manager {
	if cfg.Registry == nil {
		cfg.Registry = registry.New()
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemory(nil, cfg.Log)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MaxQueueDepth <= 0 {
		cfg.MaxQueueDepth = defaultMaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaultMaxWait
	}
	if cfg.ChainingOp == "" {
		cfg.ChainingOp = dag.DefaultChainingOp
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}
	m := &Manager{
		state:    StateReady,
		keys:     cfg.Store,
		models:   cfg.Registry,
		chainOp:  cfg.ChainingOp,
		events:   NewBroadcaster(cfg.EventBuffer),
		log:      cfg.Log,
		maxQueue: cfg.MaxQueueDepth,
		maxWait:  cfg.MaxWait,
	}
	m.SetEventPublisher(cfg.Publisher)
	m.pool = dag.NewPool(dag.PoolConfig{
		Workers:    cfg.Workers,
		QueueDepth: cfg.MaxQueueDepth,
		MaxWait:    cfg.MaxWait,
		Log:        cfg.Log,
	})
	m.startTime = time.Now()
	return m
}
