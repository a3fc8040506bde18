package hnsw

import (
	"math"
	"math/rand"
	"testing"
)

// scenario helpers -----------------------------------------------------

func newScenarioIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(Config{M: 4, EfConstruction: 10, Metric: Cosine})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return idx
}

func mustAdd(t *testing.T, idx *Index, id string, vector []float32) {
	t.Helper()
	if err := idx.AddPoint(id, vector); err != nil {
		t.Fatalf("AddPoint(%s): %v", id, err)
	}
}

func idsOf(results []SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func containsID(results []SearchResult, id string) bool {
	for _, r := range results {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Scenario 1: build-then-search.
func TestScenario1_BuildThenSearch(t *testing.T) {
	idx := newScenarioIndex(t)
	mustAdd(t, idx, "a", []float32{1, 0, 0})
	mustAdd(t, idx, "b", []float32{0, 1, 0})
	mustAdd(t, idx, "c", []float32{0, 0, 1})
	mustAdd(t, idx, "d", []float32{0.9, 0.1, 0})

	results, err := idx.SearchKNN([]float32{1, 0, 0}, 2, 0.5, 0, 0)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if got := idsOf(results); len(got) != 2 || got[0] != "a" || got[1] != "d" {
		t.Fatalf("expected [a d], got %v", got)
	}
	if results[0].Similarity != 1 {
		t.Errorf("a.Similarity = %v, want 1", results[0].Similarity)
	}
	if math.Abs(float64(results[1].Similarity)-0.9938) > 1e-3 {
		t.Errorf("d.Similarity = %v, want ~0.9938", results[1].Similarity)
	}
}

// Scenario 2: dimension mismatch leaves the index untouched.
func TestScenario2_DimensionMismatch(t *testing.T) {
	idx := newScenarioIndex(t)
	mustAdd(t, idx, "a", []float32{1, 0, 0})

	err := idx.AddPoint("bad", []float32{1, 0})
	if err == nil {
		t.Fatal("expected an error inserting a mismatched-dimension vector")
	}
	if err != ErrDimensionMismatch {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
	if idx.Size() != 1 {
		t.Errorf("Size() = %d, want 1", idx.Size())
	}
}

// Scenario 3: a tombstoned point is hidden from search results.
func TestScenario3_TombstoneHidesResults(t *testing.T) {
	idx := newScenarioIndex(t)
	mustAdd(t, idx, "a", []float32{1, 0, 0})
	mustAdd(t, idx, "b", []float32{0, 1, 0})
	mustAdd(t, idx, "c", []float32{0, 0, 1})
	mustAdd(t, idx, "d", []float32{0.9, 0.1, 0})

	if err := idx.RemovePoint("a"); err != nil {
		t.Fatalf("RemovePoint: %v", err)
	}

	results, err := idx.SearchKNN([]float32{1, 0, 0}, 2, 0.5, 0, 0)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if containsID(results, "a") {
		t.Fatalf("tombstoned id %q leaked into results: %v", "a", idsOf(results))
	}
	if len(results) == 0 || results[0].ID != "d" {
		t.Fatalf("expected d to lead results, got %v", idsOf(results))
	}
}

// Scenario 4: updating a point tombstones the old node and reinserts under
// the same id, so a subsequent search for the new vector finds it as an
// exact match.
func TestScenario4_UpdateReinserts(t *testing.T) {
	idx := newScenarioIndex(t)
	mustAdd(t, idx, "a", []float32{1, 0, 0})
	mustAdd(t, idx, "b", []float32{0, 1, 0})
	mustAdd(t, idx, "c", []float32{0, 0, 1})
	mustAdd(t, idx, "d", []float32{0.9, 0.1, 0})

	if err := idx.UpdatePoint("a", []float32{0, 1, 0}); err != nil {
		t.Fatalf("UpdatePoint: %v", err)
	}

	results, err := idx.SearchKNN([]float32{0, 1, 0}, 1, 0.5, 0, 0)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("expected [a], got %v", idsOf(results))
	}
	if results[0].Similarity != 1 {
		t.Errorf("a.Similarity = %v, want 1", results[0].Similarity)
	}
}

// Scenario 5: a snapshot round-trip preserves search behavior.
func TestScenario5_SnapshotRoundTrip(t *testing.T) {
	idx := newScenarioIndex(t)
	src := rand.New(rand.NewSource(7))

	vectors := make([][]float32, 50)
	for i := range vectors {
		v := make([]float32, 8)
		for d := range v {
			v[d] = float32(src.NormFloat64())
		}
		vectors[i] = v
		mustAdd(t, idx, idOf(i), v)
	}

	snap := idx.ToSnapshot()
	restored, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}

	for i, v := range vectors {
		want, err := idx.SearchKNN(v, 5, 0, 0, 0)
		if err != nil {
			t.Fatalf("SearchKNN(original, %d): %v", i, err)
		}
		got, err := restored.SearchKNN(v, 5, 0, 0, 0)
		if err != nil {
			t.Fatalf("SearchKNN(restored, %d): %v", i, err)
		}
		if !sameIDs(want, got) {
			t.Fatalf("query %d: original top-5 %v != restored top-5 %v", i, idsOf(want), idsOf(got))
		}
	}
}

// Scenario 6: rebuilding from a snapshot reports progress to completion,
// never grows Lmax, and preserves tombstone semantics.
func TestScenario6_RebuildFromSnapshot(t *testing.T) {
	idx := newScenarioIndex(t)
	mustAdd(t, idx, "a", []float32{1, 0, 0})
	mustAdd(t, idx, "b", []float32{0, 1, 0})
	mustAdd(t, idx, "c", []float32{0, 0, 1})
	mustAdd(t, idx, "d", []float32{0.9, 0.1, 0})
	if err := idx.RemovePoint("a"); err != nil {
		t.Fatalf("RemovePoint: %v", err)
	}

	preLmax := idx.MaxLevel()
	snap := idx.ToSnapshot()

	var lastProgress int
	rebuilt, err := RebuildFromSnapshot(snap, func(p int) { lastProgress = p })
	if err != nil {
		t.Fatalf("RebuildFromSnapshot: %v", err)
	}
	if lastProgress != 100 {
		t.Errorf("final progress = %d, want 100", lastProgress)
	}
	if rebuilt.MaxLevel() > preLmax {
		t.Errorf("rebuilt Lmax %d > pre-rebuild Lmax %d", rebuilt.MaxLevel(), preLmax)
	}

	results, err := rebuilt.SearchKNN([]float32{1, 0, 0}, 2, 0.5, 0, 0)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if containsID(results, "a") {
		t.Fatalf("tombstoned id %q survived rebuild: %v", "a", idsOf(results))
	}
}

func idOf(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return "p" + string(rune('0'+i%10)) + string(rune('a'+i/10))
}

func sameIDs(a, b []SearchResult) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
