package hnsw

// SearchResult is a single ranked hit from SearchKNN.
type SearchResult struct {
	ID         string
	Similarity float32
}

// DefaultTau is the similarity floor SearchKNN applies when the caller
// passes 0, per spec.md §6's configuration table.
const DefaultTau = 0.5

// DefaultBeamSize is the number of candidates carried between upper layers
// when the caller passes 0.
const DefaultBeamSize = 10

// SearchKNN implements spec.md §4.D's searchKNN: a beam of candidates is
// carried from Lmax down to layer 1 (exploring each layer with
// min(ef, beamSize)), merged into a running best-so-far set at every layer,
// then a single wide pass at layer 0 with beam width ef contributes the
// final candidates. Every candidate is scored against the query, tombstones
// are dropped, and only scores strictly greater than tau survive, sorted
// descending and truncated to k.
//
// An empty index, or k <= 0, yields an empty result and no error.
func (idx *Index) SearchKNN(query []float32, k int, tau float32, ef int, beamSize int) ([]SearchResult, error) {
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}

	idx.mu.RLock()
	if idx.dimension != 0 && len(query) != idx.dimension {
		idx.mu.RUnlock()
		return nil, ErrDimensionMismatch
	}
	entryID := idx.entryPointID
	topLevel := idx.maxLevel
	efConstruction := idx.efConstruction
	idx.mu.RUnlock()

	if entryID == "" || k <= 0 {
		return nil, nil
	}

	if tau == 0 {
		tau = DefaultTau
	}
	if ef <= 0 {
		ef = efConstruction
	}
	if beamSize <= 0 {
		beamSize = DefaultBeamSize
	}

	beam := []string{entryID}
	best := newWorkingSet()
	bestCap := k
	if ef > bestCap {
		bestCap = ef
	}

	// A node above level 0 is a candidate at every layer down to 0, so the
	// same id shows up in more than one layerResults slice with the same
	// score (it's scored against the same fixed query vector each time).
	// seen keeps mergeInto from pushing it into best more than once.
	seen := make(map[string]bool)

	mergeInto := func(layerResults []candidate) {
		for _, c := range layerResults {
			if seen[c.id] {
				continue
			}
			n := idx.GetNode(c.id)
			if n == nil || n.Tombstoned() {
				continue
			}
			seen[c.id] = true
			best.Push(c.id, c.sim)
		}
		for best.Size() > bestCap {
			best.PopLast()
		}
	}

	for lc := topLevel; lc > 0; lc-- {
		width := ef
		if beamSize < width {
			width = beamSize
		}
		layerResults := idx.searchLayer(query, beam, width, lc)
		mergeInto(layerResults)

		beamWidth := beamSize
		if beamWidth > len(layerResults) {
			beamWidth = len(layerResults)
		}
		beam = make([]string, beamWidth)
		for i := 0; i < beamWidth; i++ {
			beam[i] = layerResults[i].id
		}
		if len(beam) == 0 {
			beam = []string{entryID}
		}
	}

	bottom := idx.searchLayer(query, beam, ef, 0)
	mergeInto(bottom)

	scored := best.ToSequence()
	results := make([]SearchResult, 0, k)
	for _, c := range scored {
		if len(results) >= k {
			break
		}
		n := idx.GetNode(c.id)
		if n == nil || n.Tombstoned() {
			continue
		}
		sim := idx.similarity(query, n.Vector())
		if sim <= tau {
			continue
		}
		results = append(results, SearchResult{ID: c.id, Similarity: sim})
	}

	return results, nil
}

// GetVector returns the vector stored for id, or nil, false if id is
// unknown. Tombstoned nodes still report their vector: rebuild and
// diagnostics need it even though search hides them.
func (idx *Index) GetVector(id string) ([]float32, bool) {
	n := idx.GetNode(id)
	if n == nil {
		return nil, false
	}
	return n.Vector(), true
}
