package transcribe

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// constraintSet aggregates every constraint block of one transcription. The
// same structure holds symbolic values, lower bounds, or upper bounds
// depending on use.
type constraintSet struct {
	initialTime *mat.Dense // 1 x continuityColumns
	finalTime   *mat.Dense // 1 x continuityColumns
	parameters  *mat.Dense // numParameters x continuityColumns
	defects     *mat.Dense // numDefectsPerMeshInterval x numMeshIntervals
	multibody   *mat.Dense // numMultibodyResiduals x numGridPoints
	auxiliary   *mat.Dense // numAuxiliaryResiduals x numGridPoints
	kinematic   *mat.Dense // numKinematicEquations x numMeshPoints
	endpoint    []*mat.Dense
	path        []*mat.Dense
	interp      *mat.Dense // numControls x numMeshIntervals*interpPointsPerInterval
}

func (tr *Transcription) newConstraintSet() *constraintSet {
	p := tr.problem
	lay := tr.lay
	cs := &constraintSet{
		initialTime: newMatrix(1, lay.continuityColumns),
		finalTime:   newMatrix(1, lay.continuityColumns),
		parameters:  newMatrix(p.NumParameters(), lay.continuityColumns),
		defects:     newMatrix(lay.numDefectsPerMeshInterval, lay.numMeshIntervals),
		multibody:   newMatrix(p.NumMultibodyResiduals, lay.numGridPoints),
		auxiliary:   newMatrix(p.NumAuxiliaryResiduals, lay.numGridPoints),
		kinematic:   newMatrix(p.NumKinematicEquations, lay.numMeshPoints),
		interp:      newMatrix(p.NumControls(), lay.numMeshIntervals*lay.interpPointsPerInterval),
	}
	for _, ec := range p.EndpointConstraints {
		cs.endpoint = append(cs.endpoint, newMatrix(len(ec.Bounds), 1))
	}
	for _, pc := range p.PathConstraints {
		cs.path = append(cs.path, newMatrix(len(pc.Bounds), tr.numPathPoints))
	}
	return cs
}

// constraintBounds returns the lower/upper constraint sets. Every
// transcription-generated block is an equality (zero width); path and
// endpoint blocks carry the problem's declared bounds.
func (tr *Transcription) constraintBounds() (lower, upper *constraintSet) {
	lower = tr.newConstraintSet()
	upper = tr.newConstraintSet()
	for i, ec := range tr.problem.EndpointConstraints {
		for r, b := range ec.Bounds {
			lo, up := math.Inf(-1), math.Inf(1)
			if b.Set {
				lo, up = b.Lower, b.Upper
			}
			lower.endpoint[i].Set(r, 0, lo)
			upper.endpoint[i].Set(r, 0, up)
		}
	}
	for i, pc := range tr.problem.PathConstraints {
		for r, b := range pc.Bounds {
			lo, up := math.Inf(-1), math.Inf(1)
			if b.Set {
				lo, up = b.Lower, b.Upper
			}
			for c := 0; c < tr.numPathPoints; c++ {
				lower.path[i].Set(r, c, lo)
				upper.path[i].Set(r, c, up)
			}
		}
	}
	return lower, upper
}

// traverseConstraints walks every (block, column) pair in the flatten order:
// endpoint constraints first, then per-mesh-interval groups, then the final
// grid point's blocks. Keeping constraints active at the same time point
// contiguous keeps the constraint Jacobian block-banded.
//
// Trapezoidal pattern for mesh intervals 0, 1 and 2 (columns are grid
// points; endpoint constraints touch all of them through their integrals):
//
//	               0    1    2    3
//	endpoint       x    x    x    x
//	defect_0       x    x
//	residual_0     x
//	kinematic_0    x
//	path_0         x
//	defect_1            x    x
//	...
//	residual_3                    x
//	kinematic_3                   x
//	path_3                        x
//
// The Legendre schemes with degree 1 produce the Hermite-Simpson version of
// this pattern, with one interior column per interval.
func (tr *Transcription) traverseConstraints(cs *constraintSet, visit func(m *mat.Dense, col int)) {
	lay := tr.lay
	n := lay.numPointsPerInterval - 1

	for _, ep := range cs.endpoint {
		visit(ep, 0)
	}

	icon := 0
	for imesh := 0; imesh < lay.numMeshIntervals; imesh++ {
		igrid := imesh * n

		// Time and parameter continuity (dedicated slots are Legendre-Gauss
		// only; Radau folds them into its defects).
		visit(cs.initialTime, imesh)
		visit(cs.finalTime, imesh)
		visit(cs.parameters, imesh)

		visit(cs.defects, imesh)

		for i := 0; i < n; i++ {
			visit(cs.multibody, igrid+i)
			visit(cs.auxiliary, igrid+i)
		}

		visit(cs.kinematic, imesh)

		if tr.opts.PathConstraintsAtCollocation {
			for i := 0; i < n; i++ {
				for _, path := range cs.path {
					visit(path, igrid+i)
				}
			}
		} else {
			for _, path := range cs.path {
				visit(path, imesh)
			}
		}

		for i := 0; i < lay.interpPointsPerInterval; i++ {
			visit(cs.interp, icon)
			icon++
		}
	}

	// Final grid point.
	visit(cs.multibody, lay.numGridPoints-1)
	visit(cs.auxiliary, lay.numGridPoints-1)
	visit(cs.kinematic, lay.numMeshPoints-1)
	if tr.opts.PathConstraintsAtCollocation {
		for _, path := range cs.path {
			visit(path, lay.numGridPoints-1)
		}
	} else {
		for _, path := range cs.path {
			visit(path, lay.numMeshPoints-1)
		}
	}
}

func (tr *Transcription) countConstraints() int {
	total := 0
	tr.traverseConstraints(tr.lowerConstraints, func(m *mat.Dense, col int) {
		if m != nil {
			rows, _ := m.Dims()
			total += rows
		}
	})
	return total
}

// flattenConstraints packs a constraint set into a single vector in the
// traversal order. The running index must land exactly on the precomputed
// total; anything else is a scheme bug.
func (tr *Transcription) flattenConstraints(cs *constraintSet) []float64 {
	flat := make([]float64, tr.numConstraints)
	iflat := 0
	tr.traverseConstraints(cs, func(m *mat.Dense, col int) {
		if m == nil {
			return
		}
		rows, _ := m.Dims()
		for r := 0; r < rows; r++ {
			flat[iflat] = m.At(r, col)
			iflat++
		}
	})
	if iflat != tr.numConstraints {
		panic(fmt.Sprintf("transcribe: flattened %d constraint entries, want %d", iflat, tr.numConstraints))
	}
	return flat
}

// expandConstraints reverses flattenConstraints, re-deriving every block's
// shape from the problem's declared dimensions.
func (tr *Transcription) expandConstraints(flat []float64) *constraintSet {
	if len(flat) != tr.numConstraints {
		panic(fmt.Sprintf("transcribe: expanding %d constraint entries, want %d", len(flat), tr.numConstraints))
	}
	cs := tr.newConstraintSet()
	iflat := 0
	tr.traverseConstraints(cs, func(m *mat.Dense, col int) {
		if m == nil {
			return
		}
		rows, _ := m.Dims()
		for r := 0; r < rows; r++ {
			m.Set(r, col, flat[iflat])
			iflat++
		}
	})
	if iflat != tr.numConstraints {
		panic(fmt.Sprintf("transcribe: expanded %d constraint entries, want %d", iflat, tr.numConstraints))
	}
	return cs
}

// assemble evaluates the trajectory and fills a constraint set from an
// unscaled iterate. Dimension mismatches between the problem's declared
// counts and the evaluators' outputs are reported as errors on the first
// affected block.
func (tr *Transcription) assemble(it *Iterate) (*constraintSet, error) {
	p := tr.problem
	lay := tr.lay
	cs := tr.newConstraintSet()

	ts := tr.times(it)
	params := tr.parameterColumn(it)
	states := it.Variables[KindStates]
	controls := it.Variables[KindControls]

	ns := p.NumStates()
	xdot := mat.NewDense(ns, lay.numGridPoints, nil)

	// The per-point dynamics evaluations are independent and write to
	// disjoint columns and slice entries, so parallel and sequential
	// execution produce identical results.
	kinAll := make([][]float64, lay.numGridPoints)
	errs := make([]error, lay.numGridPoints)
	tr.evalTrajectory(lay.numGridPoints, func(k int) {
		out := p.Dynamics(ts[k], matColumn(states, k), matColumn(controls, k), params)
		switch {
		case len(out.XDot) != ns:
			errs[k] = fmt.Errorf("%w: dynamics returned %d state derivatives, want %d", ErrDimension, len(out.XDot), ns)
		case len(out.KinematicResiduals) != p.NumKinematicEquations:
			errs[k] = fmt.Errorf("%w: dynamics returned %d kinematic residuals, want %d", ErrDimension, len(out.KinematicResiduals), p.NumKinematicEquations)
		case len(out.MultibodyResiduals) != p.NumMultibodyResiduals:
			errs[k] = fmt.Errorf("%w: dynamics returned %d multibody residuals, want %d", ErrDimension, len(out.MultibodyResiduals), p.NumMultibodyResiduals)
		case len(out.AuxiliaryResiduals) != p.NumAuxiliaryResiduals:
			errs[k] = fmt.Errorf("%w: dynamics returned %d auxiliary residuals, want %d", ErrDimension, len(out.AuxiliaryResiduals), p.NumAuxiliaryResiduals)
		}
		if errs[k] != nil {
			return
		}
		for r := 0; r < ns; r++ {
			xdot.Set(r, k, out.XDot[r])
		}
		for r, v := range out.MultibodyResiduals {
			cs.multibody.Set(r, k, v)
		}
		for r, v := range out.AuxiliaryResiduals {
			cs.auxiliary.Set(r, k, v)
		}
		kinAll[k] = out.KinematicResiduals
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// Kinematic constraints are enforced at mesh points.
	for j, g := range tr.meshGrid {
		for r, v := range kinAll[g] {
			cs.kinematic.Set(r, j, v)
		}
	}

	in := defectInput{
		states:      states,
		xdot:        xdot,
		initialTime: it.Variables[KindInitialTime],
		finalTime:   it.Variables[KindFinalTime],
		parameters:  it.Variables[KindParameters],
	}
	tr.sch.defects(in, cs.defects)

	// Dedicated time/parameter continuity columns (Legendre-Gauss).
	for c := 0; c < lay.continuityColumns; c++ {
		cs.initialTime.Set(0, c, in.initialTime.At(0, c+1)-in.initialTime.At(0, c))
		cs.finalTime.Set(0, c, in.finalTime.At(0, c+1)-in.finalTime.At(0, c))
		for r := 0; r < p.NumParameters(); r++ {
			cs.parameters.Set(r, c, in.parameters.At(r, c+1)-in.parameters.At(r, c))
		}
	}

	if cs.interp != nil {
		tr.sch.interpolatingControls(controls, cs.interp)
	}

	for i, pc := range p.PathConstraints {
		for c := 0; c < tr.numPathPoints; c++ {
			g := c
			if !tr.opts.PathConstraintsAtCollocation {
				g = tr.meshGrid[c]
			}
			vals := pc.Eval(ts[g], matColumn(states, g), matColumn(controls, g), params)
			if len(vals) != len(pc.Bounds) {
				return nil, fmt.Errorf("%w: path constraint %q returned %d outputs, want %d", ErrDimension, pc.Name, len(vals), len(pc.Bounds))
			}
			for r, v := range vals {
				cs.path[i].Set(r, c, v)
			}
		}
	}

	t0 := it.Variables[KindInitialTime].At(0, 0)
	tf := it.Variables[KindFinalTime].At(0, lay.timeColumns-1)
	x0 := matColumn(states, 0)
	xf := matColumn(states, lay.numGridPoints-1)
	for i, ec := range p.EndpointConstraints {
		vals := ec.Eval(t0, x0, tf, xf, params)
		if len(vals) != len(ec.Bounds) {
			return nil, fmt.Errorf("%w: endpoint constraint %q returned %d outputs, want %d", ErrDimension, ec.Name, len(vals), len(ec.Bounds))
		}
		for r, v := range vals {
			cs.endpoint[i].Set(r, 0, v)
		}
	}

	return cs, nil
}
