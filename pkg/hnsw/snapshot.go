package hnsw

import "encoding/json"

// NodeRecord is the on-wire representation of a single node, matching
// spec.md §4.C's snapshot schema field-for-field.
type NodeRecord struct {
	UniqueID  string     `json:"uniqueid"`
	Level     int        `json:"level"`
	Vector    []float32  `json:"vector"`
	Neighbors [][]string `json:"neighbors"`
	Deleted   bool       `json:"deleted"`
}

// nodeEntry pairs an id with its record, so the wire format can preserve
// insertion order as an ordered list of [id, record] pairs.
type nodeEntry struct {
	ID     string
	Record NodeRecord
}

// MarshalJSON encodes a nodeEntry as the two-element ["id", {...}] array
// spec.md's schema calls for.
func (e nodeEntry) MarshalJSON() ([]byte, error) {
	pair := [2]interface{}{e.ID, e.Record}
	return json.Marshal(pair)
}

// UnmarshalJSON decodes a two-element ["id", {...}] array back into a
// nodeEntry.
func (e *nodeEntry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Record)
}

// Snapshot is the exact logical wire schema from spec.md §4.C: the
// index's tuning parameters, its entry point, and every node currently held
// under its id (including tombstoned ones, so a snapshot round-trips deletes
// too). A record replaced by UpdatePoint is not included; only its
// replacement is.
type Snapshot struct {
	M              int         `json:"M"`
	EfConstruction int         `json:"efConstruction"`
	LevelMax       int         `json:"levelMax"`
	EntryPointID   string      `json:"entryPointId"`
	Nodes          []nodeEntry `json:"nodes"`
	Mmax0          int         `json:"mmax0"`
	Metric         Metric      `json:"metric"`
	Dimension      int         `json:"dimension"`
}

// Codec serializes and deserializes a Snapshot to bytes. JSONCodec is the
// default; other encodings (e.g. a binary format) can implement this
// interface without touching Index.
type Codec interface {
	Encode(*Snapshot) ([]byte, error)
	Decode([]byte) (*Snapshot, error)
}

// JSONCodec is the default Codec, using encoding/json.
type JSONCodec struct{}

// Encode marshals snap to JSON.
func (JSONCodec) Encode(snap *Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// Decode unmarshals JSON into a Snapshot.
func (JSONCodec) Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ToSnapshot captures the full index state, in insertion order, as
// described by spec.md's snapshot schema.
func (idx *Index) ToSnapshot() *Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snap := &Snapshot{
		M:              idx.m,
		EfConstruction: idx.efConstruction,
		LevelMax:       idx.maxLevel,
		EntryPointID:   idx.entryPointID,
		Mmax0:          idx.mmax0,
		Metric:         idx.metric,
		Dimension:      idx.dimension,
		Nodes:          make([]nodeEntry, 0, len(idx.order)),
	}

	for _, id := range idx.order {
		n, ok := idx.nodes[id]
		if !ok {
			continue
		}
		neighbors := make([][]string, n.TopLevel()+1)
		for lc := 0; lc <= n.TopLevel(); lc++ {
			neighbors[lc] = n.Neighbors(lc)
		}
		snap.Nodes = append(snap.Nodes, nodeEntry{
			ID: id,
			Record: NodeRecord{
				UniqueID:  id,
				Level:     n.TopLevel(),
				Vector:    n.Vector(),
				Neighbors: neighbors,
				Deleted:   n.Tombstoned(),
			},
		})
	}

	return snap
}

// FromSnapshot rebuilds an Index directly from a snapshot's node records
// and adjacency, without replaying insertion — a structural restore rather
// than a rebuild. Use RebuildFromSnapshot instead when the goal is to
// regenerate the graph topology from scratch (e.g. after a config change).
func FromSnapshot(snap *Snapshot) (*Index, error) {
	if snap == nil {
		return nil, ErrSnapshotVersion
	}

	cfg := Config{
		M:              snap.M,
		EfConstruction: snap.EfConstruction,
		Mmax0:          snap.Mmax0,
		Metric:         snap.Metric,
	}
	idx, err := New(cfg)
	if err != nil {
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.dimension = snap.Dimension
	idx.maxLevel = snap.LevelMax
	idx.entryPointID = snap.EntryPointID
	idx.order = make([]string, 0, len(snap.Nodes))

	for _, entry := range snap.Nodes {
		rec := entry.Record
		n := newNode(rec.UniqueID, rec.Vector, rec.Level)
		if rec.Deleted {
			n.tombstone = true
		}
		for lc := 0; lc <= rec.Level && lc < len(rec.Neighbors); lc++ {
			n.SetNeighbors(lc, rec.Neighbors[lc])
		}
		idx.nodes[rec.UniqueID] = n
		idx.order = append(idx.order, rec.UniqueID)
		idx.size++
	}

	return idx, nil
}
