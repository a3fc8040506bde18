package observability

import (
	"testing"
	"time"
)

// NewMetrics registers against the default Prometheus registry, so tests
// share a single instance the way the teacher's own metrics tests do —
// otherwise a second promauto registration under the same name panics.
func TestMetrics(t *testing.T) {
	m := NewMetrics()

	t.Run("NewMetrics", func(t *testing.T) {
		if m.RequestsTotal == nil {
			t.Error("RequestsTotal not initialized")
		}
		if m.PointsInserted == nil {
			t.Error("PointsInserted not initialized")
		}
		if m.SearchLatency == nil {
			t.Error("SearchLatency not initialized")
		}
		if m.QueueDepth == nil {
			t.Error("QueueDepth not initialized")
		}
		if m.StorageErrorsTotal == nil {
			t.Error("StorageErrorsTotal not initialized")
		}
	})

	t.Run("RecordRequest", func(t *testing.T) {
		m.RecordRequest("addPoint", "success", 10*time.Millisecond)
		m.RecordRequest("searchKNN", "error", 5*time.Millisecond)
	})

	t.Run("RecordError", func(t *testing.T) {
		m.RecordError("addPoint", "dimension_mismatch")
	})

	t.Run("PointLifecycle", func(t *testing.T) {
		m.RecordInsert()
		m.RecordRemove()
		m.RecordUpdate()
		m.SetTombstones(3)
	})

	t.Run("Search", func(t *testing.T) {
		m.RecordSearch(20*time.Millisecond, 5)
		m.RecordSearch(0, 0)
	})

	t.Run("Cache", func(t *testing.T) {
		m.RecordCacheHit()
		m.RecordCacheMiss()
		m.SetCacheSize(42)
	})

	t.Run("IndexGauges", func(t *testing.T) {
		m.SetIndexSize(1000)
		m.SetIndexMaxLevel(4)
	})

	t.Run("Queue", func(t *testing.T) {
		m.SetQueueDepth(7)
		m.RecordQueueWait(2 * time.Millisecond)
	})

	t.Run("SnapshotAndRebuild", func(t *testing.T) {
		m.RecordSnapshotSave()
		m.RecordSnapshotLoad()
		m.RecordRebuild(500 * time.Millisecond)
		m.RecordStorageError("putBlob")
	})
}
