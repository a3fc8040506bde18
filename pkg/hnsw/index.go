package hnsw

import (
	"math/rand"
	"sync"
	"time"
)

// Config holds the closed configuration set from spec.md §6.
type Config struct {
	// M bounds the number of connections per node per layer (default 16).
	M int
	// EfConstruction bounds the dynamic candidate set size during insertion
	// (default 200).
	EfConstruction int
	// Mmax0 bounds level-0 degree. Spec.md §9 leaves this as an open
	// question and directs implementations to expose it, defaulting to M.
	Mmax0 int
	// Metric selects the similarity kernel (default cosine).
	Metric Metric
}

// DefaultConfig returns the spec's default configuration.
func DefaultConfig() Config {
	return Config{
		M:              16,
		EfConstruction: 200,
		Mmax0:          0, // resolved to M in New
		Metric:         Cosine,
	}
}

// Index is the HNSW graph engine: level assignment, insertion, layered
// search, neighbor selection and shrinking, soft delete, update, and
// snapshot round-trip. It is safe for concurrent use: reads take a shared
// lock, mutations take an exclusive lock, and spec.md's single-writer
// discipline is additionally enforced by callers serializing mutations
// through pkg/queue.
type Index struct {
	m              int
	mmax0          int
	efConstruction int
	metric         Metric
	simFunc        SimilarityFunc
	levels         levelTable

	mu           sync.RWMutex
	nodes        map[string]*Node
	order        []string // insertion order of ids, for deterministic rebuild
	entryPointID string
	maxLevel     int
	dimension    int
	size         int64

	rand *rand.Rand
}

// New creates an Index from cfg, applying spec defaults for zero fields.
// It returns ErrInvalidMetric for an unrecognized metric name.
func New(cfg Config) (*Index, error) {
	if cfg.M <= 0 {
		cfg.M = 16
	}
	if cfg.M < 2 {
		cfg.M = 2
	}
	if cfg.EfConstruction <= 0 {
		cfg.EfConstruction = 200
	}
	if cfg.Mmax0 <= 0 {
		cfg.Mmax0 = cfg.M
	}

	simFunc, err := ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}
	metric := cfg.Metric
	if metric == "" {
		metric = Cosine
	}

	return &Index{
		m:              cfg.M,
		mmax0:          cfg.Mmax0,
		efConstruction: cfg.EfConstruction,
		metric:         metric,
		simFunc:        simFunc,
		levels:         newLevelTable(cfg.M),
		nodes:          make(map[string]*Node),
		maxLevel:       0,
		rand:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Size returns the number of nodes ever inserted, live or tombstoned.
func (idx *Index) Size() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.size
}

// Dimension returns the vector dimension inferred on first insert, or 0.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// MaxLevel returns Lmax, the highest occupied layer.
func (idx *Index) MaxLevel() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.maxLevel
}

// EntryPointID returns the current entry point id, or "" if the index is
// empty.
func (idx *Index) EntryPointID() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entryPointID
}

// Config returns the index's effective configuration.
func (idx *Index) Config() Config {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Config{
		M:              idx.m,
		EfConstruction: idx.efConstruction,
		Mmax0:          idx.mmax0,
		Metric:         idx.metric,
	}
}

// GetNode retrieves a node by id, or nil if unknown. The returned Node
// includes tombstoned nodes.
func (idx *Index) GetNode(id string) *Node {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.nodes[id]
}

// Stats summarizes index state for observability.
type Stats struct {
	Size           int64
	Dimension      int
	MaxLevel       int
	M              int
	Mmax0          int
	EfConstruction int
	EntryPointID   string
	Tombstones     int
}

// Stats returns a point-in-time snapshot of index statistics.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tombstones := 0
	for _, n := range idx.nodes {
		if n.Tombstoned() {
			tombstones++
		}
	}

	return Stats{
		Size:           idx.size,
		Dimension:      idx.dimension,
		MaxLevel:       idx.maxLevel,
		M:              idx.m,
		Mmax0:          idx.mmax0,
		EfConstruction: idx.efConstruction,
		EntryPointID:   idx.entryPointID,
		Tombstones:     tombstones,
	}
}

// similarity computes similarity between two vectors using the index's
// configured metric.
func (idx *Index) similarity(a, b []float32) float32 {
	return idx.simFunc(a, b)
}

// mMaxForLayer returns the degree cap in effect at layer.
func (idx *Index) mMaxForLayer(layer int) int {
	if layer == 0 {
		return idx.mmax0
	}
	return idx.m
}
