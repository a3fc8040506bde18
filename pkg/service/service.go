// Package service is the thin command façade the transport layers (REST,
// CLI) call into: mutations are routed through the mutation queue so they
// run under a single-writer discipline, reads go straight to the graph
// engine, and every operation is logged, measured, and (for reads) cached.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arvindnair/hnswdb/pkg/hnsw"
	"github.com/arvindnair/hnswdb/pkg/observability"
	"github.com/arvindnair/hnswdb/pkg/queue"
	"github.com/arvindnair/hnswdb/pkg/storage"
)

// ErrSnapshotNotFound is returned by LoadSnapshot when the store has no
// blob under the primary key yet.
var ErrSnapshotNotFound = errors.New("service: no snapshot to load")

// SearchDefaults supplies the searchKNN parameters callers omit.
type SearchDefaults struct {
	Ef       int
	BeamSize int
	Tau      float32
}

// Service wires the graph engine to the mutation queue, the persistent
// snapshot adapter, and the search-result cache.
type Service struct {
	idx atomic.Pointer[hnsw.Index]

	serializer *queue.Serializer
	store      storage.Store
	storeName  string
	codec      hnsw.Codec

	cache    *SearchCache
	logger   *observability.Logger
	metrics  *observability.Metrics
	defaults SearchDefaults

	executor queue.Executor
}

// New builds a Service around an already-constructed index.
func New(
	idx *hnsw.Index,
	store storage.Store,
	storeName string,
	queueCapacity int,
	cache *SearchCache,
	logger *observability.Logger,
	metrics *observability.Metrics,
	defaults SearchDefaults,
) *Service {
	s := &Service{
		serializer: queue.NewSerializer(queueCapacity, metrics.SetQueueDepth),
		store:      store,
		storeName:  storeName,
		codec:      hnsw.JSONCodec{},
		cache:      cache,
		logger:     logger,
		metrics:    metrics,
		defaults:   defaults,
	}
	s.idx.Store(idx)
	return s
}

// WithExecutor attaches an Executor that RebuildIndex offloads its replay
// work to, and returns s for chaining. A Service built via New has no
// executor and always rebuilds inline on the serializer's own goroutine.
func (s *Service) WithExecutor(executor queue.Executor) *Service {
	s.executor = executor
	return s
}

func (s *Service) index() *hnsw.Index { return s.idx.Load() }

// Close drains the mutation queue and stops its worker.
func (s *Service) Close() { s.serializer.Close() }

// Stats reports the live index's current statistics.
func (s *Service) Stats() hnsw.Stats { return s.index().Stats() }

// GetNode returns the node stored under id, or nil.
func (s *Service) GetNode(id string) *hnsw.Node { return s.index().GetNode(id) }

// AddPoint inserts a point through the mutation queue.
func (s *Service) AddPoint(ctx context.Context, id string, vector []float32) error {
	start := time.Now()
	err := s.serializer.Enqueue(ctx, func() error {
		return s.index().AddPoint(id, vector)
	})
	s.metrics.RecordRequest("addPoint", requestStatus(err), time.Since(start))
	if err != nil {
		s.metrics.RecordError("addPoint", errorKind(err))
		return err
	}

	s.metrics.RecordInsert()
	s.refreshIndexGauges()
	s.cache.Clear()
	s.logger.Info("point added", map[string]interface{}{"id": id, "duration": time.Since(start)})
	return nil
}

// RemovePoint tombstones a point through the mutation queue.
func (s *Service) RemovePoint(ctx context.Context, id string) error {
	start := time.Now()
	err := s.serializer.Enqueue(ctx, func() error {
		return s.index().RemovePoint(id)
	})
	s.metrics.RecordRequest("removePoint", requestStatus(err), time.Since(start))
	if err != nil {
		s.metrics.RecordError("removePoint", errorKind(err))
		return err
	}

	s.metrics.RecordRemove()
	s.metrics.SetTombstones(s.index().Stats().Tombstones)
	s.cache.Clear()
	s.logger.Info("point removed", map[string]interface{}{"id": id, "duration": time.Since(start)})
	return nil
}

// UpdatePoint tombstones and reinserts a point through the mutation queue.
func (s *Service) UpdatePoint(ctx context.Context, id string, vector []float32) error {
	start := time.Now()
	err := s.serializer.Enqueue(ctx, func() error {
		return s.index().UpdatePoint(id, vector)
	})
	s.metrics.RecordRequest("updatePoint", requestStatus(err), time.Since(start))
	if err != nil {
		s.metrics.RecordError("updatePoint", errorKind(err))
		return err
	}

	s.metrics.RecordUpdate()
	s.refreshIndexGauges()
	s.metrics.SetTombstones(s.index().Stats().Tombstones)
	s.cache.Clear()
	s.logger.Info("point updated", map[string]interface{}{"id": id, "duration": time.Since(start)})
	return nil
}

// SearchKNN answers a query, serving from cache when possible.
func (s *Service) SearchKNN(ctx context.Context, query []float32, k int, tau float32, ef int, beamSize int) ([]hnsw.SearchResult, error) {
	if tau == 0 {
		tau = s.defaults.Tau
	}
	if ef <= 0 {
		ef = s.defaults.Ef
	}
	if beamSize <= 0 {
		beamSize = s.defaults.BeamSize
	}

	key := searchCacheKey(query, k, tau, ef, beamSize)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.RecordCacheHit()
		return cached, nil
	}
	s.metrics.RecordCacheMiss()

	start := time.Now()
	results, err := s.index().SearchKNN(query, k, tau, ef, beamSize)
	duration := time.Since(start)
	s.metrics.RecordRequest("searchKNN", requestStatus(err), duration)
	if err != nil {
		s.metrics.RecordError("searchKNN", errorKind(err))
		return nil, err
	}

	s.metrics.RecordSearch(duration, len(results))
	s.cache.Put(key, results)
	return results, nil
}

// BuildIndex clears and rebuilds the live index from points, through the
// mutation queue.
func (s *Service) BuildIndex(ctx context.Context, points []hnsw.PointInput, progressCb hnsw.ProgressCallback) (*hnsw.BuildResult, error) {
	var result *hnsw.BuildResult
	err := s.serializer.Enqueue(ctx, func() error {
		result = s.index().BuildIndex(points, progressCb)
		return nil
	})
	if err != nil {
		s.metrics.RecordError("buildIndex", errorKind(err))
		return nil, err
	}

	s.refreshIndexGauges()
	s.cache.Clear()
	return result, nil
}

// SaveSnapshot encodes the live index and writes it to the persistent
// snapshot adapter under the primary key.
func (s *Service) SaveSnapshot(ctx context.Context) error {
	snap := s.index().ToSnapshot()
	blob, err := s.codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("service: encode snapshot: %w", err)
	}

	handle, err := s.store.Open(s.storeName)
	if err != nil {
		s.metrics.RecordStorageError("open")
		return fmt.Errorf("service: open store: %w", err)
	}
	if err := handle.PutBlob(storage.PrimaryKey, blob); err != nil {
		s.metrics.RecordStorageError("putBlob")
		return fmt.Errorf("service: put snapshot blob: %w", err)
	}

	s.metrics.RecordSnapshotSave()
	s.logger.Info("snapshot saved", map[string]interface{}{"bytes": len(blob)})
	return nil
}

// LoadSnapshot reads the persisted snapshot and swaps it in as the live
// index, through the mutation queue.
func (s *Service) LoadSnapshot(ctx context.Context) error {
	return s.serializer.Enqueue(ctx, func() error {
		handle, err := s.store.Open(s.storeName)
		if err != nil {
			s.metrics.RecordStorageError("open")
			return fmt.Errorf("service: open store: %w", err)
		}

		blob, ok, err := handle.GetBlob(storage.PrimaryKey)
		if err != nil {
			s.metrics.RecordStorageError("getBlob")
			return fmt.Errorf("service: get snapshot blob: %w", err)
		}
		if !ok {
			return ErrSnapshotNotFound
		}

		snap, err := s.codec.Decode(blob)
		if err != nil {
			return fmt.Errorf("service: decode snapshot: %w", err)
		}
		newIdx, err := hnsw.FromSnapshot(snap)
		if err != nil {
			return fmt.Errorf("service: rebuild from snapshot: %w", err)
		}

		s.idx.Store(newIdx)
		s.metrics.RecordSnapshotLoad()
		s.refreshIndexGauges()
		s.cache.Clear()
		s.logger.Info("snapshot loaded", map[string]interface{}{"bytes": len(blob)})
		return nil
	})
}

// RebuildIndex replays every live (non-tombstoned) node of the current
// index into a fresh graph, dropping accumulated tombstones, through the
// mutation queue.
func (s *Service) RebuildIndex(ctx context.Context, progressCb hnsw.ProgressCallback) error {
	return s.serializer.Enqueue(ctx, func() error {
		start := time.Now()
		snap := s.index().ToSnapshot()

		newIdx, err := s.rebuildSnapshot(snap, progressCb)
		if err != nil {
			return fmt.Errorf("service: rebuild index: %w", err)
		}

		s.idx.Store(newIdx)
		s.metrics.RecordRebuild(time.Since(start))
		s.refreshIndexGauges()
		s.metrics.SetTombstones(newIdx.Stats().Tombstones)
		s.cache.Clear()
		s.logger.Info("index rebuilt", map[string]interface{}{"duration": time.Since(start)})
		return nil
	})
}

// rebuildSnapshot replays snap into a fresh index. With no executor
// attached it runs inline on the serializer's own goroutine; with one
// attached, the replay runs through Executor.Offload instead, carrying the
// snapshot across as an encoded blob per queue.Executor's contract so an
// out-of-process worker could pick it up without ever touching the live
// index.
func (s *Service) rebuildSnapshot(snap *hnsw.Snapshot, progressCb hnsw.ProgressCallback) (*hnsw.Index, error) {
	if s.executor == nil {
		return hnsw.RebuildFromSnapshot(snap, progressCb)
	}

	blob, err := s.codec.Encode(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	out, err := s.executor.Offload("rebuild", blob, func(snapshot []byte) ([]byte, error) {
		decoded, err := s.codec.Decode(snapshot)
		if err != nil {
			return nil, err
		}
		rebuilt, err := hnsw.RebuildFromSnapshot(decoded, progressCb)
		if err != nil {
			return nil, err
		}
		return s.codec.Encode(rebuilt.ToSnapshot())
	})
	if err != nil {
		return nil, fmt.Errorf("offload rebuild: %w", err)
	}

	decoded, err := s.codec.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("decode offloaded result: %w", err)
	}
	return hnsw.FromSnapshot(decoded)
}

func (s *Service) refreshIndexGauges() {
	idx := s.index()
	s.metrics.SetIndexSize(idx.Size())
	s.metrics.SetIndexMaxLevel(idx.MaxLevel())
}

func requestStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, hnsw.ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, hnsw.ErrNotFound):
		return "not_found"
	case errors.Is(err, hnsw.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, hnsw.ErrEmptyVector):
		return "empty_vector"
	case errors.Is(err, hnsw.ErrEmptyID):
		return "empty_id"
	case errors.Is(err, hnsw.ErrIndexEmpty):
		return "index_empty"
	case errors.Is(err, hnsw.ErrInvalidMetric):
		return "invalid_metric"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
