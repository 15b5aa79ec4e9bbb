package nlp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// Penalty solves the NLP with a quadratic-penalty outer loop around an
// unconstrained gonum/optimize run. It is not an interior-point method and
// makes no smoothness promises at active bounds, but it is dependency-light
// and solves the problems this repository ships.
type Penalty struct {
	// Mu0 is the initial penalty weight; Growth multiplies it per outer
	// iteration.
	Mu0    float64
	Growth float64
	// Outer caps penalty escalations; Major caps the inner optimizer's
	// iterations per escalation.
	Outer int
	Major int
	// Tol is the constraint-violation norm below which the outer loop
	// stops early.
	Tol float64
}

// NewPenalty returns a solver with defaults tuned for the bundled problems.
func NewPenalty() *Penalty {
	return &Penalty{Mu0: 10, Growth: 10, Outer: 6, Major: 400, Tol: 1e-6}
}

// Solve runs the penalty loop. The returned result carries the best iterate
// even when the inner optimizer stops on an iteration budget.
func (s *Penalty) Solve(ctx context.Context, p *Problem, x0 []float64) (*Result, error) {
	if p.Objective == nil {
		return nil, errors.New("nlp: problem has no objective")
	}
	if len(x0) != p.NumVariables() {
		return nil, fmt.Errorf("nlp: initial point has %d entries, want %d", len(x0), p.NumVariables())
	}

	x := append([]float64(nil), x0...)
	clampToBounds(x, p.LowerVariable, p.UpperVariable)

	g := make([]float64, p.NumConstraints())
	mu := s.Mu0
	evals := 0
	outer := 0

	for ; outer < s.Outer; outer++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		merit := func(xs []float64) float64 {
			evals++
			v := p.Objective(xs)
			v += mu * boundViolationSq(xs, p.LowerVariable, p.UpperVariable)
			if p.Constraints != nil && p.NumConstraints() > 0 {
				gl := make([]float64, p.NumConstraints())
				p.Constraints(xs, gl)
				v += mu * boundViolationSq(gl, p.LowerConstraint, p.UpperConstraint)
			}
			return v
		}

		// LBFGS requires a gradient; the merit function is only available
		// as a black box, so finite-difference it.
		problem := optimize.Problem{
			Func: merit,
			Grad: func(grad, xs []float64) {
				fd.Gradient(grad, merit, xs, nil)
			},
		}
		settings := &optimize.Settings{MajorIterations: s.Major}
		res, err := optimize.Minimize(problem, x, settings, &optimize.LBFGS{})
		if res != nil && len(res.X) == len(x) && res.F <= merit(x) {
			copy(x, res.X)
		} else if err != nil {
			return nil, fmt.Errorf("nlp: inner optimization failed: %w", err)
		}

		if p.Constraints != nil && p.NumConstraints() > 0 {
			p.Constraints(x, g)
		}
		viol := math.Sqrt(boundViolationSq(x, p.LowerVariable, p.UpperVariable) +
			boundViolationSq(g, p.LowerConstraint, p.UpperConstraint))
		if viol <= s.Tol {
			outer++
			break
		}
		mu *= s.Growth
	}

	return &Result{
		X:               x,
		Objective:       p.Objective(x),
		OuterIterations: outer,
		FuncEvaluations: evals,
	}, nil
}

// boundViolationSq sums squared violations of lb <= v <= ub.
func boundViolationSq(v, lb, ub []float64) float64 {
	total := 0.0
	for i := range v {
		if lo := lb[i]; v[i] < lo {
			d := lo - v[i]
			total += d * d
		}
		if up := ub[i]; v[i] > up {
			d := v[i] - up
			total += d * d
		}
	}
	return total
}

func clampToBounds(x, lb, ub []float64) {
	for i := range x {
		x[i] = math.Max(lb[i], math.Min(ub[i], x[i]))
	}
}

// Violation returns the max-norm constraint violation of x, a convenience
// for callers inspecting solutions.
func Violation(p *Problem, x []float64) float64 {
	worst := 0.0
	if p.Constraints != nil && p.NumConstraints() > 0 {
		g := make([]float64, p.NumConstraints())
		p.Constraints(x, g)
		for i := range g {
			worst = math.Max(worst, math.Max(p.LowerConstraint[i]-g[i], g[i]-p.UpperConstraint[i]))
		}
	}
	for i := range x {
		worst = math.Max(worst, math.Max(p.LowerVariable[i]-x[i], x[i]-p.UpperVariable[i]))
	}
	return math.Max(worst, 0)
}
