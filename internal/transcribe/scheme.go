package transcribe

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// Scheme names accepted by Options.Scheme.
const (
	SchemeTrapezoidal        = "trapezoidal"
	SchemeLegendreGauss      = "legendre-gauss"
	SchemeLegendreGaussRadau = "legendre-gauss-radau"
)

// Options selects the transcription scheme and its policies.
type Options struct {
	// Scheme is one of the Scheme* constants.
	Scheme string
	// Degree is the collocation polynomial degree for the Legendre schemes
	// (ignored by trapezoidal).
	Degree int
	// Mesh holds the knot fractions; must start at 0, end at 1 and be
	// strictly increasing.
	Mesh []float64
	// ScaleVariables derives affine variable scaling from bounds.
	ScaleVariables bool
	// PathConstraintsAtCollocation enforces path constraints at every
	// collocation point instead of only at mesh points.
	PathConstraintsAtCollocation bool
	// InterpolateControls constrains mesh-interior control samples to the
	// linear interpolant between the interval's endpoint controls.
	InterpolateControls bool
	// Parallel evaluates the dynamics across grid points on multiple
	// goroutines. The numerical result is identical either way.
	Parallel bool
}

// layout captures everything a scheme fixes about the grid and the variable
// set before any buffer is allocated.
type layout struct {
	numGridPoints             int
	numMeshPoints             int
	numMeshIntervals          int
	numPointsPerInterval      int // grid points per mesh interval, both endpoints included
	numDefectsPerMeshInterval int

	grid []float64 // time fractions for every grid point

	// timeColumns is the number of independent copies of initial/final time
	// and parameters: 1 for trapezoidal, numMeshIntervals+1 for the Legendre
	// schemes.
	timeColumns int
	// continuityColumns is the number of dedicated time/parameter continuity
	// constraint columns (Legendre-Gauss only; Radau folds continuity into
	// its defects).
	continuityColumns int
	projectionColumns int
	slackColumns      int
	// interpPointsPerInterval counts the interior control samples tied to
	// the interval-endpoint interpolant; 0 when interpolation is off.
	interpPointsPerInterval int
}

// defectInput is the slice of unscaled trajectory data a scheme needs to
// evaluate its defect equations.
type defectInput struct {
	states      *mat.Dense // numStates x numGridPoints
	xdot        *mat.Dense // numStates x numGridPoints
	initialTime *mat.Dense // 1 x timeColumns
	finalTime   *mat.Dense // 1 x timeColumns
	parameters  *mat.Dense // numParameters x timeColumns
}

// scheme is the closed contract the orchestrator dispatches through. The
// three implementations live in this package; there is no open extension
// point.
type scheme interface {
	name() string
	layout() layout

	// quadratureCoefficients returns per-grid-point weights on the mesh
	// fraction scale; their sum equals the mesh span.
	quadratureCoefficients() *mat.VecDense
	// meshIndices returns a 0/1 row vector marking mesh (knot) columns.
	meshIndices() *mat.VecDense
	// controlIndices returns a 0/1 row vector marking the control columns
	// that are independently optimized rather than reconstructed by
	// interpolation.
	controlIndices() *mat.VecDense

	// defects fills out (numDefectsPerMeshInterval x numMeshIntervals).
	defects(in defectInput, out *mat.Dense)
	// interpolatingControls fills out
	// (numControls x numMeshIntervals*interpPointsPerInterval); it is never
	// called when interpolation is off.
	interpolatingControls(controls, out *mat.Dense)
	// variableOrder is the authoritative flatten layout.
	variableOrder() []VarIndex
}

// newScheme validates options against the problem and constructs the chosen
// scheme variant.
func newScheme(p *ocp.Problem, opts Options) (scheme, error) {
	if err := validateMesh(opts.Mesh); err != nil {
		return nil, err
	}
	switch opts.Scheme {
	case SchemeTrapezoidal:
		if p.EnforceConstraintDerivatives {
			return nil, fmt.Errorf("%w: enforcing kinematic constraint derivatives is not supported with trapezoidal transcription", ErrIncompatibleOptions)
		}
		if opts.InterpolateControls {
			return nil, fmt.Errorf("%w: trapezoidal transcription has no mesh-interior control points to interpolate", ErrIncompatibleOptions)
		}
		return newTrapezoidal(p, opts), nil
	case SchemeLegendreGauss:
		if opts.Degree < 1 || opts.Degree > 9 {
			return nil, fmt.Errorf("%w: legendre-gauss degree %d (want 1..9)", ErrInvalidDegree, opts.Degree)
		}
		return newLegendreGauss(p, opts), nil
	case SchemeLegendreGaussRadau:
		if opts.Degree < 1 || opts.Degree > 9 {
			return nil, fmt.Errorf("%w: legendre-gauss-radau degree %d (want 1..9)", ErrInvalidDegree, opts.Degree)
		}
		return newLegendreGaussRadau(p, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, opts.Scheme)
	}
}

func validateMesh(mesh []float64) error {
	if len(mesh) < 2 {
		return fmt.Errorf("%w: need at least 2 mesh points, got %d", ErrInvalidMesh, len(mesh))
	}
	if mesh[0] != 0 || mesh[len(mesh)-1] != 1 {
		return fmt.Errorf("%w: endpoints are [%v, %v]", ErrInvalidMesh, mesh[0], mesh[len(mesh)-1])
	}
	for i := 1; i < len(mesh); i++ {
		if !isFiniteNumber(mesh[i]) || mesh[i] <= mesh[i-1] {
			return fmt.Errorf("%w: fraction %d", ErrInvalidMesh, i)
		}
	}
	return nil
}

// UniformMesh returns n+1 evenly spaced fractions covering [0, 1].
func UniformMesh(n int) []float64 {
	mesh := make([]float64, n+1)
	for i := range mesh {
		mesh[i] = float64(i) / float64(n)
	}
	mesh[n] = 1
	return mesh
}
