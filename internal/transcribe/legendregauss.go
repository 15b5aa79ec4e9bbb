package transcribe

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// legendreGauss collocates the dynamics at the degree-d Gauss-Legendre points
// interior to each mesh interval. Initial/final time and parameters get an
// independent copy per mesh interval, tied together by dedicated continuity
// constraints; the interval's end state is pinned to the Lagrange interpolant
// of the collocation states.
type legendreGauss struct {
	problem *ocp.Problem
	opts    Options
	mesh    []float64
	degree  int
	lay     layout

	nodes   []float64     // interval start plus the d collocation nodes on (0,1)
	weights []float64     // quadrature weights matching nodes[1:]
	diff    *mat.Dense    // (d+1) x d differentiation matrix
	interp  *mat.VecDense // Lagrange basis values at tau=1
}

func newLegendreGauss(p *ocp.Problem, opts Options) *legendreGauss {
	mesh := append([]float64(nil), opts.Mesh...)
	m := len(mesh) - 1
	d := opts.Degree
	s := &legendreGauss{problem: p, opts: opts, mesh: mesh, degree: d}

	gauss, weights := gaussNodes(d)
	s.nodes = append([]float64{0}, gauss...)
	s.weights = weights
	s.diff = differentiationMatrix(s.nodes)
	s.interp = interpolationCoefficients(s.nodes, 1)

	numGrid := m*(d+1) + 1
	grid := make([]float64, numGrid)
	for imesh := 0; imesh < m; imesh++ {
		igrid := imesh * (d + 1)
		h := mesh[imesh+1] - mesh[imesh]
		grid[igrid] = mesh[imesh]
		for k := 0; k < d; k++ {
			grid[igrid+k+1] = mesh[imesh] + h*gauss[k]
		}
	}
	grid[numGrid-1] = 1

	projCols := 0
	if p.NumKinematicEquations > 0 {
		projCols = m
	}
	interpPoints := 0
	if opts.InterpolateControls {
		interpPoints = d
	}
	s.lay = layout{
		numGridPoints:             numGrid,
		numMeshPoints:             m + 1,
		numMeshIntervals:          m,
		numPointsPerInterval:      d + 2,
		numDefectsPerMeshInterval: (d + 1) * p.NumStates(),
		grid:                      grid,
		timeColumns:               m + 1,
		continuityColumns:         m,
		projectionColumns:         projCols,
		slackColumns:              projCols,
		interpPointsPerInterval:   interpPoints,
	}
	return s
}

func (s *legendreGauss) name() string   { return SchemeLegendreGauss }
func (s *legendreGauss) layout() layout { return s.lay }

func (s *legendreGauss) quadratureCoefficients() *mat.VecDense {
	h := meshIntervalWidths(s.mesh)
	w := mat.NewVecDense(s.lay.numGridPoints, nil)
	// Mesh points carry zero weight; the interior points capture the whole
	// interval's contribution.
	for imesh := 0; imesh < s.lay.numMeshIntervals; imesh++ {
		igrid := imesh * (s.degree + 1)
		for k := 0; k < s.degree; k++ {
			w.SetVec(igrid+k+1, w.AtVec(igrid+k+1)+s.weights[k]*h[imesh])
		}
	}
	return w
}

func (s *legendreGauss) meshIndices() *mat.VecDense {
	idx := mat.NewVecDense(s.lay.numGridPoints, nil)
	for imesh := 0; imesh < s.lay.numMeshIntervals; imesh++ {
		idx.SetVec(imesh*(s.degree+1), 1)
	}
	idx.SetVec(s.lay.numGridPoints-1, 1)
	return idx
}

func (s *legendreGauss) controlIndices() *mat.VecDense {
	idx := s.meshIndices()
	if !s.opts.InterpolateControls {
		for i := 0; i < s.lay.numGridPoints; i++ {
			idx.SetVec(i, 1)
		}
	}
	return idx
}

func (s *legendreGauss) defects(in defectInput, out *mat.Dense) {
	ns := s.problem.NumStates()
	d := s.degree
	h := meshIntervalWidths(s.mesh)
	for imesh := 0; imesh < s.lay.numMeshIntervals; imesh++ {
		igrid := imesh * (d + 1)
		hi := (in.finalTime.At(0, imesh) - in.initialTime.At(0, imesh)) * h[imesh]

		// End-state interpolation. Pinning the next mesh point's state is
		// what enforces continuity across the interval boundary.
		for r := 0; r < ns; r++ {
			sum := 0.0
			for j := 0; j <= d; j++ {
				sum += in.states.At(r, igrid+j) * s.interp.AtVec(j)
			}
			out.Set(r, imesh, in.states.At(r, igrid+d+1)-sum)
		}

		// Collocation residuals: h*xdot at each interior point minus the
		// interpolant's derivative there.
		for k := 0; k < d; k++ {
			for r := 0; r < ns; r++ {
				sum := 0.0
				for j := 0; j <= d; j++ {
					sum += in.states.At(r, igrid+j) * s.diff.At(j, k)
				}
				out.Set((k+1)*ns+r, imesh, hi*in.xdot.At(r, igrid+k+1)-sum)
			}
		}
	}
}

func (s *legendreGauss) interpolatingControls(controls, out *mat.Dense) {
	interpolateIntervalControls(s.lay, controls, out)
}

func (s *legendreGauss) variableOrder() []VarIndex {
	n := s.lay.numPointsPerInterval - 1
	m := s.lay.numMeshIntervals
	var order []VarIndex
	for imesh := 0; imesh < m; imesh++ {
		igrid := imesh * n
		order = append(order,
			VarIndex{KindInitialTime, imesh},
			VarIndex{KindFinalTime, imesh},
			VarIndex{KindParameters, imesh},
		)
		if imesh > 0 && s.lay.projectionColumns > 0 {
			order = append(order,
				VarIndex{KindProjectionStates, imesh - 1},
				VarIndex{KindSlacks, imesh - 1},
			)
		}
		for i := 0; i < n; i++ {
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
	}
	order = append(order,
		VarIndex{KindInitialTime, m},
		VarIndex{KindFinalTime, m},
		VarIndex{KindParameters, m},
	)
	if s.lay.projectionColumns > 0 {
		order = append(order,
			VarIndex{KindProjectionStates, m - 1},
			VarIndex{KindSlacks, m - 1},
		)
	}
	last := s.lay.numGridPoints - 1
	order = append(order,
		VarIndex{KindStates, last},
		VarIndex{KindControls, last},
		VarIndex{KindMultipliers, last},
		VarIndex{KindDerivatives, last},
	)
	return order
}

// interpolateIntervalControls fills one residual per mesh-interior control
// sample: the sample minus the linear interpolant between the interval's
// endpoint controls. Shared by the Legendre schemes.
func interpolateIntervalControls(lay layout, controls, out *mat.Dense) {
	nc, _ := controls.Dims()
	n := lay.numPointsPerInterval - 1
	icon := 0
	for imesh := 0; imesh < lay.numMeshIntervals; imesh++ {
		igrid := imesh * n
		start := lay.grid[igrid]
		end := lay.grid[igrid+n]
		for j := 1; j < n; j++ {
			sigma := (lay.grid[igrid+j] - start) / (end - start)
			for r := 0; r < nc; r++ {
				u0 := controls.At(r, igrid)
				u1 := controls.At(r, igrid+n)
				out.Set(r, icon, controls.At(r, igrid+j)-(u0+sigma*(u1-u0)))
			}
			icon++
		}
	}
}
