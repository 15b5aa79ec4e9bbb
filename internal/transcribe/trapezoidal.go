package transcribe

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// trapezoidal enforces the dynamics with a second-order trapezoid rule and
// approximates the objective integral with trapezoidal quadrature. The grid
// is the mesh itself; time and parameters have a single copy.
type trapezoidal struct {
	problem *ocp.Problem
	mesh    []float64
	lay     layout
}

func newTrapezoidal(p *ocp.Problem, opts Options) *trapezoidal {
	mesh := append([]float64(nil), opts.Mesh...)
	m := len(mesh) - 1
	t := &trapezoidal{problem: p, mesh: mesh}
	t.lay = layout{
		numGridPoints:             m + 1,
		numMeshPoints:             m + 1,
		numMeshIntervals:          m,
		numPointsPerInterval:      2,
		numDefectsPerMeshInterval: p.NumStates(),
		grid:                      mesh,
		timeColumns:               1,
	}
	return t
}

func (t *trapezoidal) name() string   { return SchemeTrapezoidal }
func (t *trapezoidal) layout() layout { return t.lay }

func (t *trapezoidal) quadratureCoefficients() *mat.VecDense {
	h := meshIntervalWidths(t.mesh)
	w := mat.NewVecDense(t.lay.numGridPoints, nil)
	for i, hi := range h {
		w.SetVec(i, w.AtVec(i)+hi/2)
		w.SetVec(i+1, w.AtVec(i+1)+hi/2)
	}
	return w
}

func (t *trapezoidal) meshIndices() *mat.VecDense {
	idx := mat.NewVecDense(t.lay.numGridPoints, nil)
	for i := 0; i < t.lay.numGridPoints; i++ {
		idx.SetVec(i, 1)
	}
	return idx
}

func (t *trapezoidal) controlIndices() *mat.VecDense {
	// Every grid point is a mesh point; all controls are optimized.
	return t.meshIndices()
}

func (t *trapezoidal) defects(in defectInput, out *mat.Dense) {
	ns := t.problem.NumStates()
	t0 := in.initialTime.At(0, 0)
	tf := in.finalTime.At(0, 0)
	duration := tf - t0
	h := meshIntervalWidths(t.mesh)
	for imesh := 0; imesh < t.lay.numMeshIntervals; imesh++ {
		hi := duration * h[imesh]
		for r := 0; r < ns; r++ {
			defect := in.states.At(r, imesh+1) - in.states.At(r, imesh) -
				hi/2*(in.xdot.At(r, imesh)+in.xdot.At(r, imesh+1))
			out.Set(r, imesh, defect)
		}
	}
}

func (t *trapezoidal) interpolatingControls(controls, out *mat.Dense) {
	// No mesh-interior points exist; construction rejects the option.
	panic("transcribe: trapezoidal scheme has no interpolating control constraints")
}

func (t *trapezoidal) variableOrder() []VarIndex {
	order := make([]VarIndex, 0, 3+4*t.lay.numGridPoints)
	order = append(order,
		VarIndex{KindInitialTime, 0},
		VarIndex{KindFinalTime, 0},
		VarIndex{KindParameters, 0},
	)
	for i := 0; i < t.lay.numGridPoints; i++ {
		order = append(order,
			VarIndex{KindStates, i},
			VarIndex{KindControls, i},
			VarIndex{KindMultipliers, i},
			VarIndex{KindDerivatives, i},
		)
	}
	return order
}
