package qflow

import (
	"fmt"
	"sync"

	"github.com/qflowdev/qflow/internal/tree"
	"github.com/qflowdev/qflow/pkg/qflow/funcnode"
	"github.com/qflowdev/qflow/pkg/qflow/indexer"
	"github.com/qflowdev/qflow/pkg/qflow/querycalc"
	"github.com/qflowdev/qflow/pkg/qflow/remote"
	"github.com/qflowdev/qflow/pkg/qflow/scheduler"
)

// EngineConfig holds configuration for an Engine, mirroring the
// teacher's own EngineConfig shape (Vault/AWS/parser/performance
// sections) but scoped to qflow's remote-resolver and query-runtime
// concerns instead of YAML-merge operator concerns.
type EngineConfig struct {
	// Vault configuration (pkg/qflow/remote.VaultResolver)
	VaultAddr      string
	VaultToken     string
	VaultNamespace string
	VaultSkipTLS   bool
	SkipVault      bool

	// AWS configuration (pkg/qflow/remote.SecretsManagerResolver / SSMParameterResolver)
	AWSRegion  string
	AWSProfile string
	SkipAWS    bool

	// Performance configuration
	EnableCaching  bool
	CacheSize      int
	EnableParallel bool
	MaxWorkers     int

	// DataflowOrder names a dirty-node walk order ("breadth-first" by
	// default, or "insertion"). It is kept in the configuration only;
	// RefreshQuery does not read it.
	DataflowOrder string

	// Scheduler configuration (pkg/qflow/scheduler.Queue's cycle-loop
	// guard and pkg/qflow/scheduler.RescheduleLimiter's rate limit).
	MaxCyclesPerBlock   int
	RescheduleRateLimit float64
	RescheduleBurst     int
}

// DefaultEngineConfig returns the engine's default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		EnableCaching:       true,
		CacheSize:           10000,
		EnableParallel:      false,
		MaxWorkers:          4,
		DataflowOrder:       "breadth-first",
		MaxCyclesPerBlock:   10,
		RescheduleRateLimit: 50,
		RescheduleBurst:     10,
	}
}

// EngineMetrics tracks engine runtime counters, mirroring the teacher's
// EngineMetrics (OperatorCalls/CacheHits/CacheMisses/VaultCalls/AWSCalls)
// but counted against qflow's own domain events.
type EngineMetrics struct {
	mu sync.RWMutex

	NodeEvaluations map[funcnode.Kind]int64
	CacheHits       int64
	CacheMisses     int64
	RemoteResolves  int64
	QueryRefreshes  int64
}

func newEngineMetrics() *EngineMetrics {
	return &EngineMetrics{NodeEvaluations: make(map[funcnode.Kind]int64)}
}

func (m *EngineMetrics) recordEval(k funcnode.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NodeEvaluations[k]++
}

func (m *EngineMetrics) recordCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.CacheHits++
	} else {
		m.CacheMisses++
	}
}

func (m *EngineMetrics) recordRemoteResolve() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoteResolves++
}

func (m *EngineMetrics) recordQueryRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryRefreshes++
}

// Snapshot returns a point-in-time copy of the counters, safe to read
// concurrently with further engine activity.
func (m *EngineMetrics) Snapshot() EngineMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	evals := make(map[funcnode.Kind]int64, len(m.NodeEvaluations))
	for k, v := range m.NodeEvaluations {
		evals[k] = v
	}
	return EngineMetrics{
		NodeEvaluations: evals,
		CacheHits:       m.CacheHits,
		CacheMisses:     m.CacheMisses,
		RemoteResolves:  m.RemoteResolves,
		QueryRefreshes:  m.QueryRefreshes,
	}
}

// Engine is the top-level facade tying the compiler, the in-memory
// indexer, and the query-calculation runtime together: the unit a CLI
// or embedding application constructs once per compiled document set
// (spec.md §1 OVERVIEW: compiler -> indexer -> query-calc runtime).
type Engine struct {
	config EngineConfig

	Templates *TemplateTree
	Memory    *indexer.Memory
	Secrets   *remote.Registry

	Scheduler  *scheduler.Queue
	Reschedule *scheduler.RescheduleLimiter

	metrics *EngineMetrics

	queriesMu sync.RWMutex
	queries   map[string]*querycalc.RootQueryCalcNode
}

// NewEngine creates an Engine with a fresh template tree and in-memory
// indexer, wiring config's Vault/AWS settings into a remote.Registry if
// any target configuration was provided, and config's scheduler knobs
// into the cooperative task queue and its reschedule limiter.
func NewEngine(config EngineConfig) *Engine {
	maxCycles := config.MaxCyclesPerBlock
	if maxCycles <= 0 {
		maxCycles = 10
	}
	rateLimit := config.RescheduleRateLimit
	if rateLimit <= 0 {
		rateLimit = 50
	}
	burst := config.RescheduleBurst
	if burst <= 0 {
		burst = 10
	}

	e := &Engine{
		config:     config,
		Templates:  NewTemplateTree(),
		Memory:     indexer.NewMemory(),
		Secrets:    remote.NewRegistry(),
		Scheduler:  scheduler.NewQueueWithLimit(maxCycles),
		Reschedule: scheduler.NewRescheduleLimiter(rateLimit, burst),
		metrics:    newEngineMetrics(),
		queries:    make(map[string]*querycalc.RootQueryCalcNode),
	}

	if !config.SkipVault && config.VaultAddr != "" {
		e.Secrets.Register("default", remote.NewVaultResolver(map[string]remote.VaultTargetConfig{
			"default": {
				Addr:      config.VaultAddr,
				Token:     config.VaultToken,
				Namespace: config.VaultNamespace,
				Insecure:  config.VaultSkipTLS,
			},
		}))
	}
	if !config.SkipAWS && config.AWSRegion != "" {
		e.Secrets.Register("default-secretsmanager", remote.NewSecretsManagerResolver(map[string]remote.AwsTargetConfig{
			"default": {Region: config.AWSRegion, Profile: config.AWSProfile},
		}))
	}

	return e
}

// Metrics returns the engine's live metrics counters.
func (e *Engine) Metrics() *EngineMetrics { return e.metrics }

// Paths exposes the backing path store for template/query compilation.
func (e *Engine) Paths() *tree.PathStore { return e.Memory.Paths() }

// RegisterQuery creates a root query-calc node named name, rooted at
// prefixProjPathID, registered with the engine's indexer. Callers
// attach data/query results to the returned node via RegisterResult.
func (e *Engine) RegisterQuery(name string, prefixProjPathID int) (*querycalc.RootQueryCalcNode, error) {
	e.queriesMu.Lock()
	defer e.queriesMu.Unlock()
	if _, exists := e.queries[name]; exists {
		return nil, fmt.Errorf("qflow: query %q already registered", name)
	}
	root := querycalc.NewRootQueryCalcNode(e.Memory, prefixProjPathID)
	e.queries[name] = root
	return root, nil
}

// Query looks up a previously registered root query-calc node by name.
func (e *Engine) Query(name string) (*querycalc.RootQueryCalcNode, bool) {
	e.queriesMu.RLock()
	defer e.queriesMu.RUnlock()
	root, ok := e.queries[name]
	return root, ok
}

// RefreshQuery drives cycle on the named query's root node, recording
// the refresh in the engine's metrics.
func (e *Engine) RefreshQuery(name string, cycle int) error {
	root, ok := e.Query(name)
	if !ok {
		return fmt.Errorf("qflow: no such query %q", name)
	}
	root.RefreshQuery(cycle)
	e.metrics.recordQueryRefresh()
	return nil
}

// ResolveRemote resolves a `remote`/`dataSource`-typed Const node's
// value through the engine's secret registry the first time it is
// read, recording the resolve in metrics. Callers cache the returned
// value on the Const node themselves (spec.md §3: the node caches its
// own resolved value, the engine only performs the lookup).
func (e *Engine) ResolveRemote(target, key string) (string, error) {
	v, err := e.Secrets.Resolve(target, key)
	if err != nil {
		return "", err
	}
	e.metrics.recordRemoteResolve()
	return v, nil
}

// RecordNodeEvaluation lets the compiler/runtime report a function-node
// evaluation for metrics purposes.
func (e *Engine) RecordNodeEvaluation(k funcnode.Kind) { e.metrics.recordEval(k) }

// RecordCacheLookup lets the expression cache (pkg/qflow/exprstore.go)
// report a hit/miss for metrics purposes.
func (e *Engine) RecordCacheLookup(hit bool) { e.metrics.recordCache(hit) }
