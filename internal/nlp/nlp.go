package nlp

import "context"

// Problem is a packed nonlinear program:
//
//	minimize f(x)  subject to  lbg <= g(x) <= ubg,  lbx <= x <= ubx
//
// Equality constraints are zero-width rows of the constraint bounds. The
// objective and constraint callbacks must be pure functions of x.
type Problem struct {
	Objective   func(x []float64) float64
	Constraints func(x, g []float64)

	LowerVariable []float64
	UpperVariable []float64

	LowerConstraint []float64
	UpperConstraint []float64
}

func (p *Problem) NumVariables() int   { return len(p.LowerVariable) }
func (p *Problem) NumConstraints() int { return len(p.LowerConstraint) }

// Result is a packed solver outcome.
type Result struct {
	X               []float64
	Objective       float64
	OuterIterations int
	FuncEvaluations int
}

// Solver is the black-box NLP back end. The solve is a single blocking call;
// cancellation between internal milestones is best effort via ctx.
type Solver interface {
	Solve(ctx context.Context, p *Problem, x0 []float64) (*Result, error)
}
