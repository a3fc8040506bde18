package hnsw

import "sort"

// candidate pairs an id with its similarity to a fixed query vector.
type candidate struct {
	id  string
	sim float32
}

// WorkingSet is the ordered container spec.md §4.B describes: a priority
// container keyed by "similarity to a fixed query vector, most similar
// first". Ties are broken by ascending id so that iteration order is
// deterministic for a given input set.
//
// It is implemented as a sorted slice rather than a heap: ef and M in this
// package's target range (tens to low hundreds) make sorted-insertion's
// O(n) push perfectly adequate, and it makes PopFirst/PopLast/PeekLast/
// ToSequence all O(1) or O(n) copies instead of needing a second mirrored
// heap. Spec.md §4.B allows either.
type WorkingSet struct {
	items []candidate
}

func newWorkingSet() *WorkingSet {
	return &WorkingSet{}
}

// less reports whether a sorts before b: more similar first, id-ascending
// on ties.
func less(a, b candidate) bool {
	if a.sim != b.sim {
		return a.sim > b.sim
	}
	return a.id < b.id
}

// Push inserts id at its sorted position.
func (w *WorkingSet) Push(id string, sim float32) {
	item := candidate{id: id, sim: sim}
	idx := sort.Search(len(w.items), func(i int) bool { return !less(w.items[i], item) })
	w.items = append(w.items, candidate{})
	copy(w.items[idx+1:], w.items[idx:])
	w.items[idx] = item
}

// PopFirst removes and returns the most similar item.
func (w *WorkingSet) PopFirst() (string, float32, bool) {
	if len(w.items) == 0 {
		return "", 0, false
	}
	first := w.items[0]
	w.items = w.items[1:]
	return first.id, first.sim, true
}

// PopLast removes and returns the least similar item.
func (w *WorkingSet) PopLast() (string, float32, bool) {
	n := len(w.items)
	if n == 0 {
		return "", 0, false
	}
	last := w.items[n-1]
	w.items = w.items[:n-1]
	return last.id, last.sim, true
}

// PeekLast returns the least similar item without removing it.
func (w *WorkingSet) PeekLast() (string, float32, bool) {
	n := len(w.items)
	if n == 0 {
		return "", 0, false
	}
	last := w.items[n-1]
	return last.id, last.sim, true
}

// Size returns the number of items currently held.
func (w *WorkingSet) Size() int { return len(w.items) }

// ToSequence returns a copy of the items in comparator order (most similar
// first).
func (w *WorkingSet) ToSequence() []candidate {
	out := make([]candidate, len(w.items))
	copy(out, w.items)
	return out
}
