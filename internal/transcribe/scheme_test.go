package transcribe

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/ocp"
)

// linearProblem is a two-state, one-control, one-parameter problem with
// trivially correct dynamics, used by the layout and round-trip tests.
func linearProblem() *ocp.Problem {
	return &ocp.Problem{
		Name: "linear",
		States: []ocp.VariableInfo{
			{Name: "x0", Bounds: ocp.Bound(-10, 10), Initial: ocp.Fixed(0)},
			{Name: "x1", Bounds: ocp.Bound(-5, 5)},
		},
		Controls: []ocp.VariableInfo{
			{Name: "u", Bounds: ocp.Bound(-2, 2)},
		},
		Parameters: []ocp.VariableInfo{
			{Name: "p", Bounds: ocp.Bound(1, 3)},
		},
		InitialTime: ocp.Fixed(0),
		FinalTime:   ocp.Fixed(1),
		Dynamics: func(t float64, x, u, p []float64) ocp.DynamicsOutput {
			return ocp.DynamicsOutput{XDot: []float64{x[1], u[0]}}
		},
		Costs: []ocp.CostTerm{
			{Name: "effort", Integrand: func(t float64, x, u, p []float64) float64 { return u[0] * u[0] }},
		},
	}
}

func TestUniformMesh(t *testing.T) {
	mesh := UniformMesh(4)
	if len(mesh) != 5 {
		t.Fatalf("got %d fractions, want 5", len(mesh))
	}
	if mesh[0] != 0 || mesh[4] != 1 {
		t.Errorf("endpoints are [%v, %v], want [0, 1]", mesh[0], mesh[4])
	}
	if err := validateMesh(mesh); err != nil {
		t.Errorf("uniform mesh rejected: %v", err)
	}
}

func TestNewSchemeErrors(t *testing.T) {
	p := linearProblem()
	mesh := UniformMesh(2)

	_, err := New(p, Options{Scheme: "simpson", Mesh: mesh})
	if !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("unknown scheme: got %v", err)
	}

	_, err = New(p, Options{Scheme: SchemeLegendreGauss, Degree: 0, Mesh: mesh})
	if !errors.Is(err, ErrInvalidDegree) {
		t.Errorf("degree 0: got %v", err)
	}
	_, err = New(p, Options{Scheme: SchemeLegendreGaussRadau, Degree: 10, Mesh: mesh})
	if !errors.Is(err, ErrInvalidDegree) {
		t.Errorf("degree 10: got %v", err)
	}

	for _, mesh := range [][]float64{
		{0},
		{0, 0.5},
		{0.1, 0.5, 1},
		{0, 0.5, 0.5, 1},
		{0, 0.7, 0.3, 1},
	} {
		_, err = New(p, Options{Scheme: SchemeTrapezoidal, Mesh: mesh})
		if !errors.Is(err, ErrInvalidMesh) {
			t.Errorf("mesh %v: got %v", mesh, err)
		}
	}

	_, err = New(p, Options{Scheme: SchemeTrapezoidal, Mesh: UniformMesh(2), InterpolateControls: true})
	if !errors.Is(err, ErrIncompatibleOptions) {
		t.Errorf("trapezoidal interpolated controls: got %v", err)
	}

	pd := linearProblem()
	pd.EnforceConstraintDerivatives = true
	_, err = New(pd, Options{Scheme: SchemeTrapezoidal, Mesh: UniformMesh(2)})
	if !errors.Is(err, ErrIncompatibleOptions) {
		t.Errorf("trapezoidal constraint derivatives: got %v", err)
	}
}

func TestTrapezoidalLayout(t *testing.T) {
	tr, err := New(linearProblem(), Options{Scheme: SchemeTrapezoidal, Mesh: UniformMesh(3)})
	if err != nil {
		t.Fatal(err)
	}

	if tr.NumGridPoints() != 4 {
		t.Errorf("grid points = %d, want 4", tr.NumGridPoints())
	}

	mask := tr.MeshIndices()
	for i := 0; i < mask.Len(); i++ {
		if mask.AtVec(i) != 1 {
			t.Errorf("mesh mask[%d] = %v, want 1", i, mask.AtVec(i))
		}
	}

	ctrl := tr.ControlIndices()
	for i := 0; i < ctrl.Len(); i++ {
		if ctrl.AtVec(i) != 1 {
			t.Errorf("control mask[%d] = %v, want 1", i, ctrl.AtVec(i))
		}
	}

	quad := tr.QuadratureCoefficients()
	want := []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6}
	for i := range want {
		if math.Abs(quad.AtVec(i)-want[i]) > 1e-14 {
			t.Errorf("quad[%d] = %v, want %v", i, quad.AtVec(i), want[i])
		}
	}

	// 1 t0 + 1 tf + 1 param + 4 grid points x (2 states + 1 control).
	if tr.NumVariables() != 15 {
		t.Errorf("variables = %d, want 15", tr.NumVariables())
	}
	// 2 defect rows per interval, 3 intervals.
	if tr.NumConstraints() != 6 {
		t.Errorf("constraints = %d, want 6", tr.NumConstraints())
	}
}

func TestLegendreGaussLayout(t *testing.T) {
	tr, err := New(linearProblem(), Options{Scheme: SchemeLegendreGauss, Degree: 2, Mesh: UniformMesh(2)})
	if err != nil {
		t.Fatal(err)
	}

	if tr.NumGridPoints() != 7 {
		t.Errorf("grid points = %d, want 7", tr.NumGridPoints())
	}

	mask := tr.MeshIndices()
	for i := 0; i < mask.Len(); i++ {
		want := 0.0
		if i == 0 || i == 3 || i == 6 {
			want = 1
		}
		if mask.AtVec(i) != want {
			t.Errorf("mesh mask[%d] = %v, want %v", i, mask.AtVec(i), want)
		}
	}

	// Mesh points carry no quadrature weight under Gauss collocation.
	quad := tr.QuadratureCoefficients()
	sum := 0.0
	for i := 0; i < quad.Len(); i++ {
		w := quad.AtVec(i)
		if mask.AtVec(i) == 1 && w != 0 {
			t.Errorf("quad[%d] = %v at mesh point, want 0", i, w)
		}
		if mask.AtVec(i) == 0 && w <= 0 {
			t.Errorf("quad[%d] = %v at collocation point, want > 0", i, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("quad sum = %v, want 1", sum)
	}
}

func TestLegendreGaussRadauLayout(t *testing.T) {
	tr, err := New(linearProblem(), Options{Scheme: SchemeLegendreGaussRadau, Degree: 3, Mesh: UniformMesh(2)})
	if err != nil {
		t.Fatal(err)
	}

	if tr.NumGridPoints() != 7 {
		t.Errorf("grid points = %d, want 7", tr.NumGridPoints())
	}

	mask := tr.MeshIndices()
	for i := 0; i < mask.Len(); i++ {
		want := 0.0
		if i == 0 || i == 3 || i == 6 {
			want = 1
		}
		if mask.AtVec(i) != want {
			t.Errorf("mesh mask[%d] = %v, want %v", i, mask.AtVec(i), want)
		}
	}

	// Every point except the first is a collocation point and carries weight.
	quad := tr.QuadratureCoefficients()
	if quad.AtVec(0) != 0 {
		t.Errorf("quad[0] = %v, want 0", quad.AtVec(0))
	}
	sum := 0.0
	for i := 0; i < quad.Len(); i++ {
		if i > 0 && quad.AtVec(i) <= 0 {
			t.Errorf("quad[%d] = %v, want > 0", i, quad.AtVec(i))
		}
		sum += quad.AtVec(i)
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("quad sum = %v, want 1", sum)
	}
}

func TestControlIndicesWithInterpolation(t *testing.T) {
	tr, err := New(linearProblem(), Options{
		Scheme: SchemeLegendreGauss, Degree: 2, Mesh: UniformMesh(2), InterpolateControls: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctrl := tr.ControlIndices()
	mesh := tr.MeshIndices()
	for i := 0; i < ctrl.Len(); i++ {
		if ctrl.AtVec(i) != mesh.AtVec(i) {
			t.Errorf("control mask[%d] = %v, want mesh mask %v", i, ctrl.AtVec(i), mesh.AtVec(i))
		}
	}

	tr, err = New(linearProblem(), Options{
		Scheme: SchemeLegendreGaussRadau, Degree: 3, Mesh: UniformMesh(2), InterpolateControls: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctrl = tr.ControlIndices()
	mesh = tr.MeshIndices()
	for i := 0; i < ctrl.Len(); i++ {
		if mesh.AtVec(i) == 1 && ctrl.AtVec(i) != 1 {
			t.Errorf("control mask[%d] = %v at mesh point, want 1", i, ctrl.AtVec(i))
		}
		if mesh.AtVec(i) == 0 && ctrl.AtVec(i) != 0 {
			t.Errorf("control mask[%d] = %v at interior point, want 0", i, ctrl.AtVec(i))
		}
	}
}

func TestGridMonotone(t *testing.T) {
	opts := []Options{
		{Scheme: SchemeTrapezoidal, Mesh: UniformMesh(5)},
		{Scheme: SchemeLegendreGauss, Degree: 3, Mesh: UniformMesh(4)},
		{Scheme: SchemeLegendreGaussRadau, Degree: 4, Mesh: []float64{0, 0.1, 0.4, 1}},
	}
	for _, o := range opts {
		tr, err := New(linearProblem(), o)
		if err != nil {
			t.Fatalf("%s: %v", o.Scheme, err)
		}
		grid := tr.Grid()
		if grid[0] != 0 || grid[len(grid)-1] != 1 {
			t.Errorf("%s: grid endpoints [%v, %v]", o.Scheme, grid[0], grid[len(grid)-1])
		}
		for i := 1; i < len(grid); i++ {
			if grid[i] <= grid[i-1] {
				t.Errorf("%s: grid not strictly increasing at %d (%v <= %v)", o.Scheme, i, grid[i], grid[i-1])
			}
		}
	}
}

func TestProjectionAndSlackPlacement(t *testing.T) {
	p := linearProblem()
	p.NumKinematicEquations = 1
	tr, err := New(p, Options{Scheme: SchemeLegendreGauss, Degree: 2, Mesh: UniformMesh(2)})
	if err != nil {
		t.Fatal(err)
	}

	order := tr.VariableOrder()
	proj, slack := 0, 0
	firstProj, secondIntervalStart := -1, -1
	for i, vi := range order {
		switch vi.Kind {
		case KindProjectionStates:
			if firstProj < 0 {
				firstProj = i
			}
			proj++
		case KindSlacks:
			slack++
		case KindInitialTime:
			if vi.Col == 1 {
				secondIntervalStart = i
			}
		}
	}
	// One projection/slack column per mesh interval.
	if proj != 2 || slack != 2 {
		t.Errorf("got %d projection and %d slack columns, want 2 and 2", proj, slack)
	}
	// The first interval carries none; interval 0's copies appear with the
	// second interval's entry.
	if firstProj < secondIntervalStart {
		t.Errorf("projection states appear at %d, before the second interval at %d", firstProj, secondIntervalStart)
	}
	if firstProj >= 0 && order[firstProj].Col != 0 {
		t.Errorf("first projection column = %d, want 0", order[firstProj].Col)
	}

	// Radau carries slacks but no projection states.
	tr, err = New(p, Options{Scheme: SchemeLegendreGaussRadau, Degree: 2, Mesh: UniformMesh(2)})
	if err != nil {
		t.Fatal(err)
	}
	proj, slack = 0, 0
	for _, vi := range tr.VariableOrder() {
		switch vi.Kind {
		case KindProjectionStates:
			proj++
		case KindSlacks:
			slack++
		}
	}
	if proj != 0 || slack != 2 {
		t.Errorf("radau: got %d projection and %d slack columns, want 0 and 2", proj, slack)
	}
}

func TestVariableKindString(t *testing.T) {
	if KindStates.String() != "states" {
		t.Errorf("got %q", KindStates.String())
	}
	if VariableKind(99).String() != "unknown" {
		t.Errorf("got %q", VariableKind(99).String())
	}
}
