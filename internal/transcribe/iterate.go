package transcribe

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Iterate is a labeled snapshot of every variable buffer in unscaled
// (physical) units. It is the read/write boundary artifact between the
// transcription and its caller; the core never mutates one after handing it
// out.
type Iterate struct {
	// Variables is indexed by VariableKind; kinds absent from the problem
	// hold nil.
	Variables [numKinds]*mat.Dense
}

// Kind returns the buffer for one variable kind (nil when the kind is empty
// for this problem/scheme).
func (it *Iterate) Kind(k VariableKind) *mat.Dense {
	return it.Variables[k]
}

// Clone deep-copies the iterate.
func (it *Iterate) Clone() *Iterate {
	out := &Iterate{}
	for k, m := range it.Variables {
		if m != nil {
			out.Variables[k] = mat.DenseCopyOf(m)
		}
	}
	return out
}

// TermValue is one named objective contribution.
type TermValue struct {
	Name  string
	Value float64
}

// Solution is the caller-facing result of a solve: the unscaled trajectory,
// the materialized time grid, the objective with its per-term breakdown, and
// the flat constraint values at the solution.
type Solution struct {
	Iterate
	Times            []float64
	Objective        float64
	Breakdown        []TermValue
	ConstraintValues []float64
}

// InitialGuessFromBounds builds an iterate at the midpoint of each variable's
// bounds: 0 for unbounded entries, the finite bound for half-bounded ones.
func (tr *Transcription) InitialGuessFromBounds() *Iterate {
	it := tr.newIterate()
	for _, k := range allKinds {
		m := it.Variables[k]
		if m == nil {
			continue
		}
		rows, cols := m.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				m.Set(r, c, boundsMidpoint(tr.lower[k].At(r, c), tr.upper[k].At(r, c)))
			}
		}
	}
	return it
}

// RandomIterateWithinBounds draws every bounded entry uniformly within its
// bounds using the caller's generator (expected to produce numbers in
// [-1, 1]); unbounded entries fall back to the midpoint rule. A nil
// generator uses a fixed-seed source.
func (tr *Transcription) RandomIterateWithinBounds(rng *rand.Rand) *Iterate {
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	it := tr.newIterate()
	for _, k := range allKinds {
		m := it.Variables[k]
		if m == nil {
			continue
		}
		rows, cols := m.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				lo := tr.lower[k].At(r, c)
				up := tr.upper[k].At(r, c)
				if isFiniteNumber(lo) && isFiniteNumber(up) {
					u := 2*rng.Float64() - 1
					m.Set(r, c, lo+(u+1)/2*(up-lo))
				} else {
					m.Set(r, c, boundsMidpoint(lo, up))
				}
			}
		}
	}
	return it
}

func boundsMidpoint(lo, up float64) float64 {
	switch {
	case isFiniteNumber(lo) && isFiniteNumber(up):
		return (lo + up) / 2
	case isFiniteNumber(lo):
		return lo
	case isFiniteNumber(up):
		return up
	default:
		return 0
	}
}
