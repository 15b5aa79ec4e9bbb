package problems

import (
	"math"

	"github.com/san-kum/trajopt/internal/ocp"
)

// Pendulum holds the physical constants of the torque-driven pendulum
// swing-up problem.
type Pendulum struct {
	Mass      float64
	Length    float64
	Damping   float64
	Gravity   float64
	MaxTorque float64
	Duration  float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:      1.0,
		Length:    1.0,
		Damping:   0.1,
		Gravity:   9.81,
		MaxTorque: 20.0,
		Duration:  3.0,
	}
}

// Problem builds the swing-up declaration: drive the pendulum from hanging
// rest (theta = 0) to upright rest (theta = pi) within the fixed horizon,
// minimizing torque effort. A path constraint keeps the squared angular rate
// bounded, exercising trajectory-wide inequality handling.
func (p *Pendulum) Problem() *ocp.Problem {
	inertia := p.Mass * p.Length * p.Length
	return &ocp.Problem{
		Name: "pendulum",
		States: []ocp.VariableInfo{
			{Name: "theta", Bounds: ocp.Bound(-2*math.Pi, 2*math.Pi), Initial: ocp.Fixed(0), Final: ocp.Fixed(math.Pi)},
			{Name: "omega", Bounds: ocp.Bound(-10, 10), Initial: ocp.Fixed(0), Final: ocp.Fixed(0)},
		},
		Controls: []ocp.VariableInfo{
			{Name: "torque", Bounds: ocp.Bound(-p.MaxTorque, p.MaxTorque)},
		},
		InitialTime: ocp.Fixed(0),
		FinalTime:   ocp.Fixed(p.Duration),
		Dynamics: func(t float64, x, u, pp []float64) ocp.DynamicsOutput {
			theta, omega := x[0], x[1]
			alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + u[0]) / inertia
			return ocp.DynamicsOutput{XDot: []float64{omega, alpha}}
		},
		PathConstraints: []ocp.PathConstraint{
			{
				Name:   "rate_limit",
				Bounds: []ocp.Bounds{ocp.Bound(0, 100)},
				Eval: func(t float64, x, u, pp []float64) []float64 {
					return []float64{x[1] * x[1]}
				},
			},
		},
		Costs: []ocp.CostTerm{
			{
				Name: "effort",
				Integrand: func(t float64, x, u, pp []float64) float64 {
					return u[0] * u[0]
				},
			},
		},
	}
}
