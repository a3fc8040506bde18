package hnsw

import "math"

// levelTable holds the precomputed level-assignment probability table
// described in spec.md §4.D: mL = 1/ln(M), p(i) = exp(-i/mL)*(1-exp(-1/mL)),
// truncated once p(i) drops below 1e-9. Its length minus one is Lmax-cap.
type levelTable struct {
	probs []float64
}

const levelEpsilon = 1e-9

// newLevelTable builds the table for a given M (M must be >= 2).
func newLevelTable(m int) levelTable {
	mL := 1.0 / math.Log(float64(m))
	factor := 1 - math.Exp(-1/mL)

	var probs []float64
	for i := 0; ; i++ {
		p := math.Exp(-float64(i)/mL) * factor
		if p < levelEpsilon && i > 0 {
			break
		}
		probs = append(probs, p)
	}
	return levelTable{probs: probs}
}

// maxCap returns Lmax-cap, the highest level the table can produce.
func (t levelTable) maxCap() int {
	return len(t.probs) - 1
}

// draw samples a level from r in [0, 1) by walking the cumulative table,
// capping at maxCap.
func (t levelTable) draw(r float64) int {
	for i, p := range t.probs {
		if r < p {
			return i
		}
		r -= p
	}
	return t.maxCap()
}
