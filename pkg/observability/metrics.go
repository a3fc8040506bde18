package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric this service emits, covering the
// graph engine's mutating operations, search, the mutation queue, and the
// persistent snapshot adapter.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec

	PointsInserted prometheus.Counter
	PointsRemoved  prometheus.Counter
	PointsUpdated  prometheus.Counter
	Tombstones     prometheus.Gauge

	SearchTotal      prometheus.Counter
	SearchLatency    prometheus.Histogram
	SearchResultSize prometheus.Histogram

	IndexSize     prometheus.Gauge
	IndexMaxLevel prometheus.Gauge

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheSize   prometheus.Gauge

	QueueDepth   prometheus.Gauge
	QueueLatency prometheus.Histogram

	SnapshotSaveTotal  prometheus.Counter
	SnapshotLoadTotal  prometheus.Counter
	RebuildTotal       prometheus.Counter
	RebuildDuration    prometheus.Histogram
	StorageErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers every metric against the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hnswdb_requests_total",
				Help: "Total number of REST requests by method and status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hnswdb_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		RequestErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hnswdb_request_errors_total",
				Help: "Total number of REST request errors by method and error kind",
			},
			[]string{"method", "error_kind"},
		),

		PointsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hnswdb_points_inserted_total",
			Help: "Total number of points added to the index",
		}),
		PointsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hnswdb_points_removed_total",
			Help: "Total number of points tombstoned",
		}),
		PointsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hnswdb_points_updated_total",
			Help: "Total number of points updated (tombstone + reinsert)",
		}),
		Tombstones: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hnswdb_tombstones",
			Help: "Current number of tombstoned nodes",
		}),

		SearchTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hnswdb_search_total",
			Help: "Total number of searchKNN calls",
		}),
		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswdb_search_latency_seconds",
			Help:    "searchKNN latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		SearchResultSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswdb_search_result_size",
			Help:    "Number of results returned by searchKNN",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		}),

		IndexSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hnswdb_index_size",
			Help: "Number of nodes in the index, live or tombstoned",
		}),
		IndexMaxLevel: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hnswdb_index_max_level",
			Help: "Current Lmax of the graph",
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hnswdb_cache_hits_total",
			Help: "Total number of search-result cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hnswdb_cache_misses_total",
			Help: "Total number of search-result cache misses",
		}),
		CacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hnswdb_cache_size",
			Help: "Current number of entries in the search-result cache",
		}),

		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hnswdb_queue_depth",
			Help: "Current number of mutations waiting in the serializer queue",
		}),
		QueueLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswdb_queue_latency_seconds",
			Help:    "Time a mutation waits in queue before being dequeued",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		SnapshotSaveTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hnswdb_snapshot_save_total",
			Help: "Total number of snapshot saves",
		}),
		SnapshotLoadTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hnswdb_snapshot_load_total",
			Help: "Total number of snapshot loads",
		}),
		RebuildTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hnswdb_rebuild_total",
			Help: "Total number of index rebuilds",
		}),
		RebuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnswdb_rebuild_duration_seconds",
			Help:    "Rebuild duration in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300},
		}),
		StorageErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hnswdb_storage_errors_total",
				Help: "Total number of persistent-adapter I/O errors by operation",
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) RecordRequest(method, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, status).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *Metrics) RecordError(method, errorKind string) {
	m.RequestErrors.WithLabelValues(method, errorKind).Inc()
}

func (m *Metrics) RecordInsert()          { m.PointsInserted.Inc() }
func (m *Metrics) RecordRemove()          { m.PointsRemoved.Inc() }
func (m *Metrics) RecordUpdate()          { m.PointsUpdated.Inc() }
func (m *Metrics) SetTombstones(n int)    { m.Tombstones.Set(float64(n)) }

func (m *Metrics) RecordSearch(duration time.Duration, resultSize int) {
	m.SearchTotal.Inc()
	m.SearchLatency.Observe(duration.Seconds())
	m.SearchResultSize.Observe(float64(resultSize))
}

func (m *Metrics) RecordCacheHit()  { m.CacheHits.Inc() }
func (m *Metrics) RecordCacheMiss() { m.CacheMisses.Inc() }
func (m *Metrics) SetCacheSize(n int) { m.CacheSize.Set(float64(n)) }

func (m *Metrics) SetIndexSize(size int64) { m.IndexSize.Set(float64(size)) }
func (m *Metrics) SetIndexMaxLevel(level int) { m.IndexMaxLevel.Set(float64(level)) }

func (m *Metrics) SetQueueDepth(n int) { m.QueueDepth.Set(float64(n)) }
func (m *Metrics) RecordQueueWait(d time.Duration) { m.QueueLatency.Observe(d.Seconds()) }

func (m *Metrics) RecordSnapshotSave() { m.SnapshotSaveTotal.Inc() }
func (m *Metrics) RecordSnapshotLoad() { m.SnapshotLoadTotal.Inc() }

func (m *Metrics) RecordRebuild(duration time.Duration) {
	m.RebuildTotal.Inc()
	m.RebuildDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordStorageError(operation string) {
	m.StorageErrorsTotal.WithLabelValues(operation).Inc()
}
