package hnsw

// AddPoint inserts a new point under id with the given vector, following
// spec.md §4.C's insertion algorithm: a fresh level is drawn for the node;
// the graph is descended greedily (ef=1) from the current entry point down
// to layer+1; then, from min(Lmax, layer) down to 0, searchLayer finds
// efConstruction candidates, selectNeighbors picks the M (or Mmax0 at layer
// 0) closest, and bidirectional links are added and shrunk as needed.
//
// The very first point in an empty index becomes the entry point directly,
// with no search phase.
//
// An empty vector is a silent no-op per spec.md §7/§8: it returns nil
// without touching the index, rather than surfacing ErrEmptyVector.
func (idx *Index) AddPoint(id string, vector []float32) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(vector) == 0 {
		return nil
	}

	idx.mu.Lock()

	if idx.dimension == 0 {
		idx.dimension = len(vector)
	} else if len(vector) != idx.dimension {
		idx.mu.Unlock()
		return ErrDimensionMismatch
	}

	if existing, ok := idx.nodes[id]; ok && !existing.Tombstoned() {
		idx.mu.Unlock()
		return ErrAlreadyExists
	}

	level := idx.levels.draw(idx.rand.Float64())
	node := newNode(id, vector, level)

	if idx.entryPointID == "" {
		idx.nodes[id] = node
		idx.order = append(idx.order, id)
		idx.entryPointID = id
		idx.maxLevel = level
		idx.size++
		idx.mu.Unlock()
		return nil
	}

	entryID := idx.entryPointID
	topLevel := idx.maxLevel
	idx.mu.Unlock()

	// Phase 1: greedy descent with ef=1 from top layer down to layer+1.
	ep := entryID
	epSim := idx.similarity(vector, idx.mustNode(ep).Vector())

	for lc := topLevel; lc > level; lc-- {
		changed := true
		for changed {
			changed = false
			for _, neighborID := range idx.neighborsAt(ep, lc) {
				n := idx.GetNode(neighborID)
				if n == nil {
					continue
				}
				sim := idx.similarity(vector, n.Vector())
				if sim > epSim {
					epSim = sim
					ep = neighborID
					changed = true
				}
			}
		}
	}

	// Phase 2: layered construction from min(Lmax, level) down to 0.
	start := level
	if topLevel < start {
		start = topLevel
	}

	idx.mu.Lock()
	if _, seen := idx.nodes[id]; !seen {
		idx.order = append(idx.order, id)
	}
	idx.nodes[id] = node
	idx.mu.Unlock()

	entryPoints := []string{ep}
	for lc := start; lc >= 0; lc-- {
		candidates := idx.searchLayer(vector, entryPoints, idx.efConstruction, lc)

		mMax := idx.mMaxForLayer(lc)
		neighbors := selectNeighbors(candidates, mMax)

		for _, nb := range neighbors {
			nbNode := idx.GetNode(nb.id)
			if nbNode == nil {
				continue
			}
			node.AddNeighbor(lc, nb.id)
			nbNode.AddNeighbor(lc, id)
			idx.shrink(nbNode, lc)
		}

		entryPoints = make([]string, len(candidates))
		for i, c := range candidates {
			entryPoints[i] = c.id
		}
	}

	idx.mu.Lock()
	if level > idx.maxLevel {
		idx.maxLevel = level
		idx.entryPointID = id
	}
	idx.size++
	idx.mu.Unlock()

	return nil
}

// mustNode fetches a node known to exist; used internally where a missing
// node would indicate a broken invariant elsewhere.
func (idx *Index) mustNode(id string) *Node {
	return idx.GetNode(id)
}

// neighborsAt returns id's neighbor list at layer, or nil if id or layer is
// unknown.
func (idx *Index) neighborsAt(id string, layer int) []string {
	n := idx.GetNode(id)
	if n == nil || layer > n.TopLevel() {
		return nil
	}
	return n.Neighbors(layer)
}

// searchLayer performs the bounded best-first traversal from spec.md
// §4.D.searchLayer: seeded from every id in entries, it explores neighbors
// greedily, keeping at most ef results, and stops expanding once ef results
// are kept and the best remaining candidate is strictly less similar than
// the current worst kept result.
func (idx *Index) searchLayer(query []float32, entries []string, ef int, layer int) []candidate {
	visited := make(map[string]bool, len(entries))
	candidates := newWorkingSet()
	results := newWorkingSet()

	for _, entryID := range entries {
		if visited[entryID] {
			continue
		}
		entryNode := idx.GetNode(entryID)
		if entryNode == nil {
			continue
		}
		visited[entryID] = true
		sim := idx.similarity(query, entryNode.Vector())
		candidates.Push(entryID, sim)
		results.Push(entryID, sim)
	}
	if results.Size() > ef {
		for results.Size() > ef {
			results.PopLast()
		}
	}

	for candidates.Size() > 0 {
		curID, curSim, _ := candidates.PopFirst()

		if _, worstSim, ok := results.PeekLast(); ok && results.Size() >= ef && curSim < worstSim {
			break
		}

		curNode := idx.GetNode(curID)
		if curNode == nil {
			continue
		}

		for _, neighborID := range idx.neighborsAtNode(curNode, layer) {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			neighborNode := idx.GetNode(neighborID)
			if neighborNode == nil {
				continue
			}

			sim := idx.similarity(query, neighborNode.Vector())
			_, worstSim, haveWorst := results.PeekLast()

			if results.Size() < ef || !haveWorst || sim > worstSim {
				candidates.Push(neighborID, sim)
				results.Push(neighborID, sim)
				if results.Size() > ef {
					results.PopLast()
				}
			}
		}
	}

	return results.ToSequence()
}

// neighborsAtNode is a node-local variant of neighborsAt, avoiding a second
// map lookup where the caller already has the *Node.
func (idx *Index) neighborsAtNode(n *Node, layer int) []string {
	if layer > n.TopLevel() {
		return nil
	}
	return n.Neighbors(layer)
}

// selectNeighbors implements spec.md §4.C's neighbor selection policy: the
// simple top-k rule, no diversity heuristic. candidates must already be in
// similarity-descending order, as searchLayer's results are.
func selectNeighbors(candidates []candidate, m int) []candidate {
	if len(candidates) <= m {
		return candidates
	}
	return candidates[:m]
}

// shrink rebuilds node's adjacency at layer to the mMax closest peers by
// similarity to node itself, per spec.md §4.C's shrink rule. It is a full
// rebuild, not an incremental prune. Peers dropped by the rebuild have their
// reverse edge to node removed too, so symmetric adjacency keeps holding
// after a shrink.
func (idx *Index) shrink(node *Node, layer int) {
	mMax := idx.mMaxForLayer(layer)
	current := node.Neighbors(layer)
	if len(current) <= mMax {
		return
	}

	ws := newWorkingSet()
	for _, peerID := range current {
		peer := idx.GetNode(peerID)
		if peer == nil {
			continue
		}
		ws.Push(peerID, idx.similarity(node.Vector(), peer.Vector()))
	}

	kept := make([]string, 0, mMax)
	keptSet := make(map[string]bool, mMax)
	for i := 0; i < mMax; i++ {
		id, _, ok := ws.PopFirst()
		if !ok {
			break
		}
		kept = append(kept, id)
		keptSet[id] = true
	}
	node.SetNeighbors(layer, kept)

	for _, peerID := range current {
		if keptSet[peerID] {
			continue
		}
		if peer := idx.GetNode(peerID); peer != nil {
			peer.RemoveNeighbor(layer, node.id)
		}
	}
}
