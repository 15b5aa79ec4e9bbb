package transcribe

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/nlp"
	"github.com/san-kum/trajopt/internal/ocp"
)

// defaultSlackBound bounds the velocity-correction slacks when the problem
// does not set its own.
const defaultSlackBound = 0.1

// Transcription converts a continuous optimal-control problem into a
// finite-dimensional NLP using the configured scheme. It exclusively owns
// every variable, bound, scaling, and constraint buffer it allocates; the
// problem and options are read-only collaborators. Instances are not safe
// for concurrent use.
type Transcription struct {
	problem *ocp.Problem
	opts    Options
	sch     scheme
	lay     layout

	dims [numKinds]int
	cols [numKinds]int

	lower  [numKinds]*mat.Dense
	upper  [numKinds]*mat.Dense
	shift  [numKinds]*mat.VecDense
	dilate [numKinds]*mat.VecDense

	quadrature  *mat.VecDense
	meshMask    *mat.VecDense
	controlMask *mat.VecDense

	// gridInterval maps each grid point to the mesh interval whose time and
	// parameter copies apply to it.
	gridInterval []int
	// meshGrid maps each mesh point to its grid column.
	meshGrid []int

	numVariables   int
	numConstraints int
	numPathPoints  int

	lowerConstraints *constraintSet
	upperConstraints *constraintSet
}

// New validates the options against the problem, constructs the scheme, and
// allocates all per-kind buffers and bounds. The returned instance is fully
// laid out; no further setup calls are needed.
func New(p *ocp.Problem, opts Options) (*Transcription, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sch, err := newScheme(p, opts)
	if err != nil {
		return nil, err
	}
	tr := &Transcription{problem: p, opts: opts, sch: sch, lay: sch.layout()}
	tr.createVariablesAndSetBounds()
	return tr, nil
}

// NumGridPoints returns the total number of grid points in the scheme's grid.
func (tr *Transcription) NumGridPoints() int { return tr.lay.numGridPoints }

// NumVariables returns the packed decision-vector length.
func (tr *Transcription) NumVariables() int { return tr.numVariables }

// NumConstraints returns the packed constraint-vector length.
func (tr *Transcription) NumConstraints() int { return tr.numConstraints }

// Grid returns the grid point time fractions in [0, 1].
func (tr *Transcription) Grid() []float64 {
	return append([]float64(nil), tr.lay.grid...)
}

// QuadratureCoefficients returns the per-grid-point quadrature weights on the
// mesh fraction scale.
func (tr *Transcription) QuadratureCoefficients() *mat.VecDense {
	return mat.VecDenseCopyOf(tr.quadrature)
}

// MeshIndices returns the 0/1 mask marking mesh points in the grid.
func (tr *Transcription) MeshIndices() *mat.VecDense {
	return mat.VecDenseCopyOf(tr.meshMask)
}

// ControlIndices returns the 0/1 mask marking independently optimized
// control columns.
func (tr *Transcription) ControlIndices() *mat.VecDense {
	return mat.VecDenseCopyOf(tr.controlMask)
}

// createVariablesAndSetBounds sizes every variable kind from the scheme's
// layout, validates the scheme's index vectors, and installs bounds and
// scaling. Runs exactly once, from New.
func (tr *Transcription) createVariablesAndSetBounds() {
	p := tr.problem
	lay := tr.lay

	tr.dims = [numKinds]int{
		KindInitialTime:      1,
		KindFinalTime:        1,
		KindStates:           p.NumStates(),
		KindControls:         p.NumControls(),
		KindMultipliers:      p.NumMultipliers(),
		KindDerivatives:      p.NumDerivatives(),
		KindParameters:       p.NumParameters(),
		KindProjectionStates: p.NumStates(),
		KindSlacks:           p.NumKinematicEquations,
	}
	tr.cols = [numKinds]int{
		KindInitialTime:      lay.timeColumns,
		KindFinalTime:        lay.timeColumns,
		KindStates:           lay.numGridPoints,
		KindControls:         lay.numGridPoints,
		KindMultipliers:      lay.numGridPoints,
		KindDerivatives:      lay.numGridPoints,
		KindParameters:       lay.timeColumns,
		KindProjectionStates: lay.projectionColumns,
		KindSlacks:           lay.slackColumns,
	}

	for _, k := range allKinds {
		tr.lower[k] = newMatrix(tr.dims[k], tr.cols[k])
		tr.upper[k] = newMatrix(tr.dims[k], tr.cols[k])
		fillMatrix(tr.lower[k], math.Inf(-1))
		fillMatrix(tr.upper[k], math.Inf(1))
		if tr.dims[k] > 0 {
			tr.shift[k] = mat.NewVecDense(tr.dims[k], nil)
			tr.dilate[k] = mat.NewVecDense(tr.dims[k], nil)
			for r := 0; r < tr.dims[k]; r++ {
				tr.dilate[k].SetVec(r, 1)
			}
		}
	}

	tr.quadrature = tr.sch.quadratureCoefficients()
	tr.meshMask = tr.validateMeshIndices(tr.sch.meshIndices())
	tr.controlMask = tr.sch.controlIndices()

	tr.gridInterval = make([]int, lay.numGridPoints)
	n := lay.numPointsPerInterval - 1
	for k := range tr.gridInterval {
		imesh := k / n
		if imesh >= lay.numMeshIntervals {
			imesh = lay.numMeshIntervals - 1
		}
		tr.gridInterval[k] = imesh
	}
	tr.meshGrid = make([]int, 0, lay.numMeshPoints)
	for k := 0; k < lay.numGridPoints; k++ {
		if tr.meshMask.AtVec(k) != 0 {
			tr.meshGrid = append(tr.meshGrid, k)
		}
	}

	tr.setProblemBounds()
	if tr.opts.ScaleVariables {
		tr.setProblemScaling()
	}

	tr.numPathPoints = lay.numMeshPoints
	if tr.opts.PathConstraintsAtCollocation {
		tr.numPathPoints = lay.numGridPoints
	}
	tr.numVariables = 0
	for _, vi := range tr.sch.variableOrder() {
		tr.numVariables += tr.dims[vi.Kind]
	}
	tr.lowerConstraints, tr.upperConstraints = tr.constraintBounds()
	tr.numConstraints = tr.countConstraints()
}

// validateMeshIndices enforces the scheme contract on the mesh mask: row
// vector of grid length whose entries sum to the number of mesh points. A
// violation is a bug in the scheme, not user input.
func (tr *Transcription) validateMeshIndices(mask *mat.VecDense) *mat.VecDense {
	if mask.Len() != tr.lay.numGridPoints {
		panic(fmt.Sprintf("transcribe: %s mesh indices have length %d, want %d",
			tr.sch.name(), mask.Len(), tr.lay.numGridPoints))
	}
	sum := 0.0
	for i := 0; i < mask.Len(); i++ {
		sum += mask.AtVec(i)
	}
	if sum != float64(tr.lay.numMeshPoints) {
		panic(fmt.Sprintf("transcribe: %s mesh indices sum to %v, want %d mesh points",
			tr.sch.name(), sum, tr.lay.numMeshPoints))
	}
	if mask.AtVec(mask.Len()-1) != 1 {
		panic(fmt.Sprintf("transcribe: %s mesh indices do not mark the final grid point", tr.sch.name()))
	}
	return mask
}

func (tr *Transcription) setProblemBounds() {
	p := tr.problem
	lay := tr.lay

	for c := 0; c < lay.timeColumns; c++ {
		tr.setVariableBounds(KindInitialTime, 0, 1, c, c+1, p.InitialTime)
		tr.setVariableBounds(KindFinalTime, 0, 1, c, c+1, p.FinalTime)
	}
	for r, info := range p.Parameters {
		tr.setVariableBounds(KindParameters, r, r+1, 0, lay.timeColumns, info.Bounds)
	}
	for r, info := range p.States {
		tr.setVariableBounds(KindStates, r, r+1, 0, lay.numGridPoints, info.Bounds)
		if info.Initial.Set {
			tr.setVariableBounds(KindStates, r, r+1, 0, 1, info.Initial)
		}
		if info.Final.Set {
			tr.setVariableBounds(KindStates, r, r+1, lay.numGridPoints-1, lay.numGridPoints, info.Final)
		}
		if lay.projectionColumns > 0 {
			tr.setVariableBounds(KindProjectionStates, r, r+1, 0, lay.projectionColumns, info.Bounds)
		}
	}
	for r, info := range p.Controls {
		tr.setVariableBounds(KindControls, r, r+1, 0, lay.numGridPoints, info.Bounds)
		if info.Initial.Set {
			tr.setVariableBounds(KindControls, r, r+1, 0, 1, info.Initial)
		}
		if info.Final.Set {
			tr.setVariableBounds(KindControls, r, r+1, lay.numGridPoints-1, lay.numGridPoints, info.Final)
		}
	}
	for r, info := range p.Multipliers {
		tr.setVariableBounds(KindMultipliers, r, r+1, 0, lay.numGridPoints, info.Bounds)
	}
	for r, info := range p.Derivatives {
		tr.setVariableBounds(KindDerivatives, r, r+1, 0, lay.numGridPoints, info.Bounds)
	}
	if lay.slackColumns > 0 {
		slack := p.SlackBounds
		if !slack.Set {
			slack = ocp.Bound(-defaultSlackBound, defaultSlackBound)
		}
		for r := 0; r < p.NumKinematicEquations; r++ {
			tr.setVariableBounds(KindSlacks, r, r+1, 0, lay.slackColumns, slack)
		}
	}
}

func (tr *Transcription) setProblemScaling() {
	p := tr.problem
	tr.setVariableScaling(KindInitialTime, 0, 1, p.InitialTime)
	tr.setVariableScaling(KindFinalTime, 0, 1, p.FinalTime)
	for r, info := range p.Parameters {
		tr.setVariableScaling(KindParameters, r, r+1, info.Bounds)
	}
	for r, info := range p.States {
		tr.setVariableScaling(KindStates, r, r+1, info.Bounds)
		tr.setVariableScaling(KindProjectionStates, r, r+1, info.Bounds)
	}
	for r, info := range p.Controls {
		tr.setVariableScaling(KindControls, r, r+1, info.Bounds)
	}
	for r, info := range p.Multipliers {
		tr.setVariableScaling(KindMultipliers, r, r+1, info.Bounds)
	}
	for r, info := range p.Derivatives {
		tr.setVariableScaling(KindDerivatives, r, r+1, info.Bounds)
	}
}

// setVariableBounds writes a bound pair into the addressed sub-block; unset
// bounds materialize as +/-Inf.
func (tr *Transcription) setVariableBounds(kind VariableKind, r0, r1, c0, c1 int, b ocp.Bounds) {
	lo, up := math.Inf(-1), math.Inf(1)
	if b.Set {
		lo, up = b.Lower, b.Upper
	}
	if tr.lower[kind] == nil {
		return
	}
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			tr.lower[kind].Set(r, c, lo)
			tr.upper[kind].Set(r, c, up)
		}
	}
}

// setVariableScaling derives the affine (dilate, shift) pair for the
// addressed rows from a bound pair. Infinite or NaN width keeps identity;
// zero width pins the value through the shift.
func (tr *Transcription) setVariableScaling(kind VariableKind, r0, r1 int, b ocp.Bounds) {
	if tr.shift[kind] == nil {
		return
	}
	for r := r0; r < r1; r++ {
		dilate, shift := 1.0, 0.0
		if b.Set {
			width := b.Upper - b.Lower
			switch {
			case !isFiniteNumber(width):
				dilate, shift = 1, 0
			case width == 0:
				dilate, shift = 1, b.Upper
			default:
				dilate = width
				shift = 0.5 * (b.Upper + b.Lower)
			}
		}
		tr.dilate[kind].SetVec(r, dilate)
		tr.shift[kind].SetVec(r, shift)
	}
}

// scale maps unscaled per-kind matrices into the solver-facing representation:
// scaled = (unscaled - shift) / dilate, broadcasting the per-row pair across
// columns.
func (tr *Transcription) scale(vars *Iterate) *Iterate {
	out := tr.newIterate()
	for _, k := range allKinds {
		src := vars.Variables[k]
		dst := out.Variables[k]
		if src == nil {
			continue
		}
		rows, cs := src.Dims()
		for r := 0; r < rows; r++ {
			sh := tr.shift[k].AtVec(r)
			di := tr.dilate[k].AtVec(r)
			for c := 0; c < cs; c++ {
				dst.Set(r, c, (src.At(r, c)-sh)/di)
			}
		}
	}
	return out
}

// unscale inverts scale exactly: unscaled = scaled*dilate + shift.
func (tr *Transcription) unscale(vars *Iterate) *Iterate {
	out := tr.newIterate()
	for _, k := range allKinds {
		src := vars.Variables[k]
		dst := out.Variables[k]
		if src == nil {
			continue
		}
		rows, cs := src.Dims()
		for r := 0; r < rows; r++ {
			sh := tr.shift[k].AtVec(r)
			di := tr.dilate[k].AtVec(r)
			for c := 0; c < cs; c++ {
				dst.Set(r, c, src.At(r, c)*di+sh)
			}
		}
	}
	return out
}

// times materializes the real time at every grid point from the iterate's
// time copies: t_k = t0 + (tf - t0) * frac_k, using the copy belonging to
// the grid point's mesh interval.
func (tr *Transcription) times(it *Iterate) []float64 {
	t0s := it.Variables[KindInitialTime]
	tfs := it.Variables[KindFinalTime]
	out := make([]float64, tr.lay.numGridPoints)
	for k := range out {
		c := 0
		if tr.lay.timeColumns > 1 {
			c = tr.gridInterval[k]
		}
		t0 := t0s.At(0, c)
		tf := tfs.At(0, c)
		out[k] = t0 + (tf-t0)*tr.lay.grid[k]
	}
	return out
}

// parameterColumn returns the first parameter copy as a slice (the copies
// are tied together by continuity constraints).
func (tr *Transcription) parameterColumn(it *Iterate) []float64 {
	np := tr.problem.NumParameters()
	p := make([]float64, np)
	for r := 0; r < np; r++ {
		p[r] = it.Variables[KindParameters].At(r, 0)
	}
	return p
}

// objective evaluates the cost terms on an unscaled iterate and returns the
// total along with the per-term breakdown in declaration order.
func (tr *Transcription) objective(it *Iterate) (float64, []float64) {
	p := tr.problem
	ts := tr.times(it)
	params := tr.parameterColumn(it)
	states := it.Variables[KindStates]
	controls := it.Variables[KindControls]

	t0 := it.Variables[KindInitialTime].At(0, 0)
	tf := it.Variables[KindFinalTime].At(0, tr.lay.timeColumns-1)
	duration := tf - t0
	x0 := matColumn(states, 0)
	xf := matColumn(states, tr.lay.numGridPoints-1)

	terms := make([]float64, len(p.Costs))
	total := 0.0
	for i, cost := range p.Costs {
		v := 0.0
		if cost.Integrand != nil {
			for k := 0; k < tr.lay.numGridPoints; k++ {
				w := tr.quadrature.AtVec(k)
				if w == 0 {
					continue
				}
				v += w * duration * cost.Integrand(ts[k], matColumn(states, k), matColumn(controls, k), params)
			}
		}
		if cost.Endpoint != nil {
			v += cost.Endpoint(t0, x0, tf, xf, params)
		}
		terms[i] = v
		total += v
	}
	return total, terms
}

// NLP builds the packed nonlinear program for the external solver. The guess
// seeds the initial point; a nil guess uses InitialGuessFromBounds. The
// constraint assembly runs once here so dimension errors surface before any
// solve starts.
func (tr *Transcription) NLP(guess *Iterate) (*nlp.Problem, []float64, error) {
	if guess == nil {
		guess = tr.InitialGuessFromBounds()
	}
	if _, err := tr.assemble(guess); err != nil {
		return nil, nil, err
	}

	lbx := tr.flattenVariables(tr.scale(tr.boundsIterate(tr.lower)))
	ubx := tr.flattenVariables(tr.scale(tr.boundsIterate(tr.upper)))
	lbg := tr.flattenConstraints(tr.lowerConstraints)
	ubg := tr.flattenConstraints(tr.upperConstraints)
	x0 := tr.flattenVariables(tr.scale(guess))

	problem := &nlp.Problem{
		Objective: func(x []float64) float64 {
			it := tr.unscale(tr.expandVariables(x))
			total, _ := tr.objective(it)
			return total
		},
		Constraints: func(x, g []float64) {
			it := tr.unscale(tr.expandVariables(x))
			cs, err := tr.assemble(it)
			if err != nil {
				// Dimensions were validated against the guess above; the
				// evaluators cannot change shape between calls.
				panic(err)
			}
			copy(g, tr.flattenConstraints(cs))
		},
		LowerVariable:   lbx,
		UpperVariable:   ubx,
		LowerConstraint: lbg,
		UpperConstraint: ubg,
	}
	return problem, x0, nil
}

// Solve transcribes, runs the external solver, and converts the packed
// result back into a labeled solution.
func (tr *Transcription) Solve(ctx context.Context, solver nlp.Solver, guess *Iterate) (*Solution, error) {
	problem, x0, err := tr.NLP(guess)
	if err != nil {
		return nil, err
	}
	res, err := solver.Solve(ctx, problem, x0)
	if err != nil {
		return nil, fmt.Errorf("transcribe: NLP solve failed: %w", err)
	}
	it := tr.unscale(tr.expandVariables(res.X))
	total, terms := tr.objective(it)
	cs, err := tr.assemble(it)
	if err != nil {
		return nil, err
	}
	sol := &Solution{
		Iterate:          *it,
		Times:            tr.times(it),
		Objective:        total,
		ConstraintValues: tr.flattenConstraints(cs),
	}
	for i, cost := range tr.problem.Costs {
		sol.Breakdown = append(sol.Breakdown, TermValue{Name: cost.Name, Value: terms[i]})
	}
	return sol, nil
}

// boundsIterate wraps a bounds buffer array as an iterate for flattening.
func (tr *Transcription) boundsIterate(src [numKinds]*mat.Dense) *Iterate {
	it := &Iterate{}
	for _, k := range allKinds {
		if src[k] != nil {
			it.Variables[k] = mat.DenseCopyOf(src[k])
		}
	}
	return it
}

// newMatrix allocates a dense matrix, or nil when either dimension is zero
// (mat.NewDense rejects empty shapes).
func newMatrix(rows, cols int) *mat.Dense {
	if rows == 0 || cols == 0 {
		return nil
	}
	return mat.NewDense(rows, cols, nil)
}

func fillMatrix(m *mat.Dense, v float64) {
	if m == nil {
		return
	}
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, v)
		}
	}
}

func matColumn(m *mat.Dense, c int) []float64 {
	if m == nil {
		return nil
	}
	rows, _ := m.Dims()
	out := make([]float64, rows)
	for r := 0; r < rows; r++ {
		out[r] = m.At(r, c)
	}
	return out
}
