package nlp

import (
	"context"
	"math"
	"testing"
)

func inf() float64 { return math.Inf(1) }

func TestPenaltyUnconstrainedQuadratic(t *testing.T) {
	p := &Problem{
		Objective: func(x []float64) float64 {
			return (x[0]-3)*(x[0]-3) + (x[1]+1)*(x[1]+1)
		},
		LowerVariable: []float64{-inf(), -inf()},
		UpperVariable: []float64{inf(), inf()},
	}
	res, err := NewPenalty().Solve(context.Background(), p, []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.X[0]-3) > 1e-4 || math.Abs(res.X[1]+1) > 1e-4 {
		t.Errorf("minimizer = %v, want [3, -1]", res.X)
	}
	if res.FuncEvaluations == 0 {
		t.Error("no function evaluations recorded")
	}
}

func TestPenaltyActiveVariableBound(t *testing.T) {
	// min (x-2)^2 subject to x <= 1; optimum sits on the bound.
	p := &Problem{
		Objective: func(x []float64) float64 {
			return (x[0] - 2) * (x[0] - 2)
		},
		LowerVariable: []float64{-inf()},
		UpperVariable: []float64{1},
	}
	res, err := NewPenalty().Solve(context.Background(), p, []float64{0})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.X[0]-1) > 1e-3 {
		t.Errorf("minimizer = %v, want ~1", res.X[0])
	}
}

func TestPenaltyEqualityConstraint(t *testing.T) {
	// min x^2 + y^2 subject to x + y = 1; optimum is (0.5, 0.5).
	p := &Problem{
		Objective: func(x []float64) float64 {
			return x[0]*x[0] + x[1]*x[1]
		},
		Constraints: func(x, g []float64) {
			g[0] = x[0] + x[1]
		},
		LowerVariable:   []float64{-inf(), -inf()},
		UpperVariable:   []float64{inf(), inf()},
		LowerConstraint: []float64{1},
		UpperConstraint: []float64{1},
	}
	res, err := NewPenalty().Solve(context.Background(), p, []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.X[0]-0.5) > 1e-3 || math.Abs(res.X[1]-0.5) > 1e-3 {
		t.Errorf("minimizer = %v, want [0.5, 0.5]", res.X)
	}
	if v := Violation(p, res.X); v > 1e-3 {
		t.Errorf("violation = %v", v)
	}
}

func TestPenaltyInputValidation(t *testing.T) {
	p := &Problem{
		LowerVariable: []float64{0},
		UpperVariable: []float64{1},
	}
	if _, err := NewPenalty().Solve(context.Background(), p, []float64{0}); err == nil {
		t.Error("expected error for missing objective")
	}

	p.Objective = func(x []float64) float64 { return x[0] }
	if _, err := NewPenalty().Solve(context.Background(), p, []float64{0, 0}); err == nil {
		t.Error("expected error for mismatched initial point")
	}
}

func TestPenaltyCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Problem{
		Objective:     func(x []float64) float64 { return x[0] * x[0] },
		LowerVariable: []float64{-inf()},
		UpperVariable: []float64{inf()},
	}
	if _, err := NewPenalty().Solve(ctx, p, []float64{1}); err == nil {
		t.Error("expected context error")
	}
}

func TestViolation(t *testing.T) {
	p := &Problem{
		LowerVariable: []float64{0},
		UpperVariable: []float64{1},
	}
	if v := Violation(p, []float64{0.5}); v != 0 {
		t.Errorf("feasible point has violation %v", v)
	}
	if v := Violation(p, []float64{1.5}); math.Abs(v-0.5) > 1e-14 {
		t.Errorf("violation = %v, want 0.5", v)
	}
}
