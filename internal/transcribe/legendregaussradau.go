package transcribe

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// legendreGaussRadau collocates at the degree-d right Radau points, so the
// last collocation point of each interval coincides with the next mesh
// point. Time and parameter copies are per interval like Legendre-Gauss, but
// their continuity residuals live inside the defect matrix instead of in
// dedicated constraint slots.
type legendreGaussRadau struct {
	problem *ocp.Problem
	opts    Options
	mesh    []float64
	degree  int
	lay     layout

	nodes   []float64  // interval start plus the d Radau nodes on (0,1]
	weights []float64  // quadrature weights matching nodes[1:]
	diff    *mat.Dense // (d+1) x d differentiation matrix
}

func newLegendreGaussRadau(p *ocp.Problem, opts Options) *legendreGaussRadau {
	mesh := append([]float64(nil), opts.Mesh...)
	m := len(mesh) - 1
	d := opts.Degree
	s := &legendreGaussRadau{problem: p, opts: opts, mesh: mesh, degree: d}

	radau, weights := radauNodes(d)
	s.nodes = append([]float64{0}, radau...)
	s.weights = weights
	s.diff = differentiationMatrix(s.nodes)

	numGrid := m*d + 1
	grid := make([]float64, numGrid)
	for imesh := 0; imesh < m; imesh++ {
		igrid := imesh * d
		h := mesh[imesh+1] - mesh[imesh]
		grid[igrid] = mesh[imesh]
		for k := 0; k < d; k++ {
			grid[igrid+k+1] = mesh[imesh] + h*radau[k]
		}
	}
	grid[numGrid-1] = 1

	slackCols := 0
	if p.NumKinematicEquations > 0 {
		slackCols = m
	}
	interpPoints := 0
	if opts.InterpolateControls {
		interpPoints = d - 1
	}
	s.lay = layout{
		numGridPoints:             numGrid,
		numMeshPoints:             m + 1,
		numMeshIntervals:          m,
		numPointsPerInterval:      d + 1,
		numDefectsPerMeshInterval: 2 + p.NumParameters() + d*p.NumStates(),
		grid:                      grid,
		timeColumns:               m + 1,
		slackColumns:              slackCols,
		interpPointsPerInterval:   interpPoints,
	}
	return s
}

func (s *legendreGaussRadau) name() string   { return SchemeLegendreGaussRadau }
func (s *legendreGaussRadau) layout() layout { return s.lay }

func (s *legendreGaussRadau) quadratureCoefficients() *mat.VecDense {
	h := meshIntervalWidths(s.mesh)
	w := mat.NewVecDense(s.lay.numGridPoints, nil)
	// Interior mesh points are collocation points of the preceding interval
	// and accumulate its final weight; only the very first grid point stays
	// at zero.
	for imesh := 0; imesh < s.lay.numMeshIntervals; imesh++ {
		igrid := imesh * s.degree
		for k := 0; k < s.degree; k++ {
			w.SetVec(igrid+k+1, w.AtVec(igrid+k+1)+s.weights[k]*h[imesh])
		}
	}
	return w
}

func (s *legendreGaussRadau) meshIndices() *mat.VecDense {
	idx := mat.NewVecDense(s.lay.numGridPoints, nil)
	for imesh := 0; imesh < s.lay.numMeshIntervals; imesh++ {
		idx.SetVec(imesh*s.degree, 1)
	}
	idx.SetVec(s.lay.numGridPoints-1, 1)
	return idx
}

func (s *legendreGaussRadau) controlIndices() *mat.VecDense {
	idx := mat.NewVecDense(s.lay.numGridPoints, nil)
	for i := 0; i < s.lay.numGridPoints; i++ {
		idx.SetVec(i, 1)
	}
	if s.opts.InterpolateControls {
		// Interior samples are reconstructed; the mesh points stay free.
		for imesh := 0; imesh < s.lay.numMeshIntervals; imesh++ {
			igrid := imesh * s.degree
			for k := 1; k < s.degree; k++ {
				idx.SetVec(igrid+k, 0)
			}
		}
	}
	return idx
}

func (s *legendreGaussRadau) defects(in defectInput, out *mat.Dense) {
	ns := s.problem.NumStates()
	np := s.problem.NumParameters()
	d := s.degree
	h := meshIntervalWidths(s.mesh)
	for imesh := 0; imesh < s.lay.numMeshIntervals; imesh++ {
		igrid := imesh * d
		hi := (in.finalTime.At(0, imesh) - in.initialTime.At(0, imesh)) * h[imesh]

		// Continuity of the per-interval time and parameter copies.
		out.Set(0, imesh, in.initialTime.At(0, imesh+1)-in.initialTime.At(0, imesh))
		out.Set(1, imesh, in.finalTime.At(0, imesh+1)-in.finalTime.At(0, imesh))
		for r := 0; r < np; r++ {
			out.Set(2+r, imesh, in.parameters.At(r, imesh+1)-in.parameters.At(r, imesh))
		}

		// Collocation residuals; the last column lands on the next mesh
		// point, which is what makes a separate end-state row unnecessary.
		for k := 0; k < d; k++ {
			for r := 0; r < ns; r++ {
				sum := 0.0
				for j := 0; j <= d; j++ {
					sum += in.states.At(r, igrid+j) * s.diff.At(j, k)
				}
				out.Set(2+np+k*ns+r, imesh, hi*in.xdot.At(r, igrid+k+1)-sum)
			}
		}
	}
}

func (s *legendreGaussRadau) interpolatingControls(controls, out *mat.Dense) {
	interpolateIntervalControls(s.lay, controls, out)
}

func (s *legendreGaussRadau) variableOrder() []VarIndex {
	n := s.lay.numPointsPerInterval - 1
	m := s.lay.numMeshIntervals
	var order []VarIndex
	for imesh := 0; imesh < m; imesh++ {
		igrid := imesh * n
		order = append(order,
			VarIndex{KindStates, igrid},
			VarIndex{KindInitialTime, imesh},
			VarIndex{KindFinalTime, imesh},
			VarIndex{KindParameters, imesh},
		)
		for i := 1; i < n; i++ {
			order = append(order, VarIndex{KindStates, igrid + i})
		}
		for i := 0; i < n; i++ {
			order = append(order, VarIndex{KindControls, igrid + i})
		}
		for i := 0; i < n; i++ {
			order = append(order, VarIndex{KindMultipliers, igrid + i})
		}
		for i := 0; i < n; i++ {
			order = append(order, VarIndex{KindDerivatives, igrid + i})
		}
		if s.lay.slackColumns > 0 {
			order = append(order, VarIndex{KindSlacks, imesh})
		}
	}
	last := s.lay.numGridPoints - 1
	order = append(order,
		VarIndex{KindStates, last},
		VarIndex{KindInitialTime, m},
		VarIndex{KindFinalTime, m},
		VarIndex{KindParameters, m},
		VarIndex{KindControls, last},
		VarIndex{KindMultipliers, last},
		VarIndex{KindDerivatives, last},
	)
	return order
}
