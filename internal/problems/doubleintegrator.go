package problems

import "github.com/san-kum/trajopt/internal/ocp"

// NewDoubleIntegrator is the minimum-effort rest-to-rest transfer: move a
// unit point mass from position 0 to position 1 in one second, starting and
// ending at rest, minimizing the integral of u^2. The analytic optimum is
// u(t) = 6 - 12t with objective 12.
func NewDoubleIntegrator() *ocp.Problem {
	return &ocp.Problem{
		Name: "double_integrator",
		States: []ocp.VariableInfo{
			{Name: "position", Bounds: ocp.Bound(-10, 10), Initial: ocp.Fixed(0), Final: ocp.Fixed(1)},
			{Name: "velocity", Bounds: ocp.Bound(-10, 10), Initial: ocp.Fixed(0), Final: ocp.Fixed(0)},
		},
		Controls: []ocp.VariableInfo{
			{Name: "force", Bounds: ocp.Bound(-50, 50)},
		},
		InitialTime: ocp.Fixed(0),
		FinalTime:   ocp.Fixed(1),
		Dynamics: func(t float64, x, u, p []float64) ocp.DynamicsOutput {
			return ocp.DynamicsOutput{XDot: []float64{x[1], u[0]}}
		},
		Costs: []ocp.CostTerm{
			{
				Name: "effort",
				Integrand: func(t float64, x, u, p []float64) float64 {
					return u[0] * u[0]
				},
			},
		},
	}
}
