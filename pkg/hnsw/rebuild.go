package hnsw

// RebuildFromSnapshot regenerates a fresh Index's graph topology by
// replaying every live point from snap through AddPoint, in the order the
// points were originally inserted. Unlike FromSnapshot, which restores the
// exact adjacency a snapshot recorded, RebuildFromSnapshot recomputes
// adjacency from scratch — useful after a tuning parameter changes, or to
// compact away tombstoned nodes and their accumulated shrink history.
// Tombstoned points in the snapshot are skipped entirely: they carry no
// vector obligation to the rebuilt graph. Levels drawn during the replay are
// capped at the snapshot's LevelMax, so the rebuilt graph is never taller
// than the one the snapshot recorded.
//
// progressCb, if non-nil, is invoked with a percentage in [0, 100] as
// points are replayed.
func RebuildFromSnapshot(snap *Snapshot, progressCb ProgressCallback) (*Index, error) {
	if snap == nil {
		return nil, ErrSnapshotVersion
	}

	idx, err := New(Config{
		M:              snap.M,
		EfConstruction: snap.EfConstruction,
		Mmax0:          snap.Mmax0,
		Metric:         snap.Metric,
	})
	if err != nil {
		return nil, err
	}
	if snap.LevelMax >= 0 && snap.LevelMax < idx.levels.maxCap() {
		full := idx.levels
		idx.levels = levelTable{probs: full.probs[:snap.LevelMax+1]}
		defer func() { idx.levels = full }()
	}

	live := make([]PointInput, 0, len(snap.Nodes))
	for _, entry := range snap.Nodes {
		if entry.Record.Deleted {
			continue
		}
		live = append(live, PointInput{ID: entry.Record.UniqueID, Vector: entry.Record.Vector})
	}

	if len(live) == 0 {
		if progressCb != nil {
			progressCb(100)
		}
		return idx, nil
	}

	for i, p := range live {
		if err := idx.AddPoint(p.ID, p.Vector); err != nil {
			return nil, err
		}
		if progressCb != nil {
			progressCb((i + 1) * 100 / len(live))
		}
	}

	return idx, nil
}
