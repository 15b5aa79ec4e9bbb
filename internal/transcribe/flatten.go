package transcribe

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// flattenVariables concatenates every (kind, column) entry of an iterate into
// a single vector following the scheme's authoritative variable order. This
// is the vector the NLP solver sees; its interleaving is chosen per scheme
// for Jacobian sparsity, not for readability.
func (tr *Transcription) flattenVariables(it *Iterate) []float64 {
	flat := make([]float64, tr.numVariables)
	iflat := 0
	for _, vi := range tr.sch.variableOrder() {
		m := it.Variables[vi.Kind]
		if m == nil {
			continue
		}
		rows, _ := m.Dims()
		for r := 0; r < rows; r++ {
			flat[iflat] = m.At(r, vi.Col)
			iflat++
		}
	}
	if iflat != tr.numVariables {
		panic(fmt.Sprintf("transcribe: flattened %d variable entries, want %d", iflat, tr.numVariables))
	}
	return flat
}

// expandVariables inverts flattenVariables exactly: it walks the same
// variable order and slices the flat vector back into per-kind matrices, so
// expand(flatten(v)) == v bit for bit. Kind-major consumers (scaling, bound
// assembly, iterate labeling) then read the matrices in the canonical kind
// order.
func (tr *Transcription) expandVariables(flat []float64) *Iterate {
	if len(flat) != tr.numVariables {
		panic(fmt.Sprintf("transcribe: expanding %d variable entries, want %d", len(flat), tr.numVariables))
	}
	it := tr.newIterate()
	iflat := 0
	for _, vi := range tr.sch.variableOrder() {
		m := it.Variables[vi.Kind]
		if m == nil {
			continue
		}
		rows, _ := m.Dims()
		for r := 0; r < rows; r++ {
			m.Set(r, vi.Col, flat[iflat])
			iflat++
		}
	}
	if iflat != tr.numVariables {
		panic(fmt.Sprintf("transcribe: expanded %d variable entries, want %d", iflat, tr.numVariables))
	}
	return it
}

// VariableOrder exposes the scheme's flatten layout (a copy).
func (tr *Transcription) VariableOrder() []VarIndex {
	return append([]VarIndex(nil), tr.sch.variableOrder()...)
}

// newIterate allocates an iterate with every kind's buffer sized for this
// transcription.
func (tr *Transcription) newIterate() *Iterate {
	it := &Iterate{}
	for _, k := range allKinds {
		it.Variables[k] = newMatrix(tr.dims[k], tr.cols[k])
	}
	return it
}

// constraintLayout records the (block, column, rows) sequence of the
// constraint traversal; tests compare sparsity patterns with it.
type constraintBlock struct {
	slot string
	col  int
	rows int
}

func (tr *Transcription) constraintLayout() []constraintBlock {
	cs := tr.lowerConstraints
	name := func(m *mat.Dense) string {
		switch {
		case m == cs.initialTime:
			return "initial_time"
		case m == cs.finalTime:
			return "final_time"
		case m == cs.parameters:
			return "parameters"
		case m == cs.defects:
			return "defects"
		case m == cs.multibody:
			return "multibody"
		case m == cs.auxiliary:
			return "auxiliary"
		case m == cs.kinematic:
			return "kinematic"
		case m == cs.interp:
			return "interp_controls"
		}
		for i, ep := range cs.endpoint {
			if m == ep {
				return fmt.Sprintf("endpoint_%d", i)
			}
		}
		for i, path := range cs.path {
			if m == path {
				return fmt.Sprintf("path_%d", i)
			}
		}
		return "unknown"
	}
	var blocks []constraintBlock
	tr.traverseConstraints(cs, func(m *mat.Dense, col int) {
		if m == nil {
			return
		}
		rows, _ := m.Dims()
		blocks = append(blocks, constraintBlock{slot: name(m), col: col, rows: rows})
	})
	return blocks
}
