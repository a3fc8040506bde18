package hnsw

import "testing"

func TestWorkingSet_OrderingAndTieBreak(t *testing.T) {
	ws := newWorkingSet()
	ws.Push("b", 0.5)
	ws.Push("a", 0.9)
	ws.Push("c", 0.5) // ties with "b"; ascending id must sort "b" before "c"
	ws.Push("d", 0.1)

	seq := ws.ToSequence()
	want := []string{"a", "b", "c", "d"}
	for i, c := range seq {
		if c.id != want[i] {
			t.Fatalf("position %d = %q, want %q (full order: %v)", i, c.id, want[i], idsOfCandidates(seq))
		}
	}
}

func TestWorkingSet_PopFirstAndPopLast(t *testing.T) {
	ws := newWorkingSet()
	ws.Push("x", 0.3)
	ws.Push("y", 0.9)
	ws.Push("z", 0.6)

	id, sim, ok := ws.PopFirst()
	if !ok || id != "y" || sim != 0.9 {
		t.Errorf("PopFirst() = %q, %v, %v; want y, 0.9, true", id, sim, ok)
	}

	id, sim, ok = ws.PopLast()
	if !ok || id != "x" || sim != 0.3 {
		t.Errorf("PopLast() = %q, %v, %v; want x, 0.3, true", id, sim, ok)
	}

	if ws.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", ws.Size())
	}

	id, _, ok = ws.PeekLast()
	if !ok || id != "z" {
		t.Errorf("PeekLast() = %q, %v; want z, true", id, ok)
	}
	if ws.Size() != 1 {
		t.Errorf("PeekLast should not remove; Size() = %d, want 1", ws.Size())
	}
}

func TestWorkingSet_EmptyPops(t *testing.T) {
	ws := newWorkingSet()
	if _, _, ok := ws.PopFirst(); ok {
		t.Error("PopFirst on empty set returned ok=true")
	}
	if _, _, ok := ws.PopLast(); ok {
		t.Error("PopLast on empty set returned ok=true")
	}
	if _, _, ok := ws.PeekLast(); ok {
		t.Error("PeekLast on empty set returned ok=true")
	}
	if ws.Size() != 0 {
		t.Errorf("Size() = %d, want 0", ws.Size())
	}
}

func idsOfCandidates(cs []candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.id
	}
	return out
}
