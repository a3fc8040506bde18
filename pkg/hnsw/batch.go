package hnsw

import "fmt"

// ProgressCallback reports progress during a long-running bulk operation,
// as a percentage in [0, 100].
type ProgressCallback func(percent int)

// PointInput pairs an id with its vector for bulk loading.
type PointInput struct {
	ID     string
	Vector []float32
}

// BuildResult summarizes a BuildIndex call.
type BuildResult struct {
	TotalProcessed int
	SuccessCount   int
	FailureCount   int
	Errors         []error
}

// BuildIndex clears idx and inserts points sequentially in the given order,
// reporting progress from 0 to 100. Sequential insertion, rather than the
// teacher's worker-pool BatchInsert, is required here: HNSW's neighbor
// selection at insert time depends on the graph state left by every prior
// insertion, so concurrent inserts would race on shared neighbor lists and
// produce a graph that depends on goroutine scheduling.
func (idx *Index) BuildIndex(points []PointInput, progressCb ProgressCallback) *BuildResult {
	idx.mu.Lock()
	idx.nodes = make(map[string]*Node)
	idx.order = nil
	idx.entryPointID = ""
	idx.maxLevel = 0
	idx.dimension = 0
	idx.size = 0
	idx.mu.Unlock()

	result := &BuildResult{TotalProcessed: len(points)}

	if len(points) == 0 {
		if progressCb != nil {
			progressCb(100)
		}
		return result
	}

	for i, p := range points {
		if err := idx.AddPoint(p.ID, p.Vector); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("point %s: %w", p.ID, err))
			result.FailureCount++
		} else {
			result.SuccessCount++
		}

		if progressCb != nil {
			progressCb((i + 1) * 100 / len(points))
		}
	}

	return result
}
