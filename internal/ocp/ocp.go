package ocp

import "fmt"

// Bounds is a closed interval constraint on a variable or constraint output.
// The zero value is "unset", which downstream code materializes as (-Inf, +Inf).
type Bounds struct {
	Lower float64
	Upper float64
	Set   bool
}

// Bound returns a set interval. Lower <= Upper is the caller's responsibility;
// the NLP solver rejects violations.
func Bound(lower, upper float64) Bounds {
	return Bounds{Lower: lower, Upper: upper, Set: true}
}

// Fixed returns a zero-width interval pinning a value.
func Fixed(v float64) Bounds {
	return Bound(v, v)
}

// VariableInfo declares one row of a trajectory variable: its name, the bounds
// that apply along the whole trajectory, and optional tighter bounds at the
// first and last grid points.
type VariableInfo struct {
	Name    string
	Bounds  Bounds
	Initial Bounds
	Final   Bounds
}

// DynamicsOutput carries everything the dynamics evaluator reports at one
// trajectory point. Slice lengths must match the counts declared on Problem;
// the transcription checks them when assembling the first constraint block.
type DynamicsOutput struct {
	XDot               []float64
	KinematicResiduals []float64
	MultibodyResiduals []float64
	AuxiliaryResiduals []float64
}

// DynamicsFunc evaluates the system at a single point. It must be a pure
// function of its arguments: the transcription may call it concurrently
// across grid points.
type DynamicsFunc func(t float64, x, u, p []float64) DynamicsOutput

// PathConstraint is evaluated along the trajectory, either at every mesh
// point or at every collocation point depending on solver options.
type PathConstraint struct {
	Name   string
	Bounds []Bounds
	Eval   func(t float64, x, u, p []float64) []float64
}

// EndpointConstraint is evaluated once over the trajectory endpoints.
type EndpointConstraint struct {
	Name   string
	Bounds []Bounds
	Eval   func(t0 float64, x0 []float64, tf float64, xf []float64, p []float64) []float64
}

// CostTerm contributes an integral part, an endpoint part, or both to the
// objective. Either function may be nil.
type CostTerm struct {
	Name      string
	Integrand func(t float64, x, u, p []float64) float64
	Endpoint  func(t0 float64, x0 []float64, tf float64, xf []float64, p []float64) float64
}

// Problem is the continuous-time optimal-control problem handed to the
// transcription. It is treated as read-only for the lifetime of a
// transcription instance.
type Problem struct {
	Name string

	States      []VariableInfo
	Controls    []VariableInfo
	Multipliers []VariableInfo
	Derivatives []VariableInfo
	Parameters  []VariableInfo

	InitialTime Bounds
	FinalTime   Bounds

	Dynamics DynamicsFunc

	NumKinematicEquations int
	NumMultibodyResiduals int
	NumAuxiliaryResiduals int

	// EnforceConstraintDerivatives requests enforcement of kinematic
	// constraint derivatives; only the Legendre schemes support it.
	EnforceConstraintDerivatives bool

	// SlackBounds bound the per-interval velocity-correction slacks used by
	// the Legendre schemes when kinematic constraints are present. Unset
	// means the default of +/-0.1.
	SlackBounds Bounds

	PathConstraints     []PathConstraint
	EndpointConstraints []EndpointConstraint
	Costs               []CostTerm
}

func (p *Problem) NumStates() int      { return len(p.States) }
func (p *Problem) NumControls() int    { return len(p.Controls) }
func (p *Problem) NumMultipliers() int { return len(p.Multipliers) }
func (p *Problem) NumDerivatives() int { return len(p.Derivatives) }
func (p *Problem) NumParameters() int  { return len(p.Parameters) }

// Validate reports configuration errors in the problem declaration itself.
func (p *Problem) Validate() error {
	if p.NumStates() == 0 {
		return fmt.Errorf("ocp: problem %q declares no states", p.Name)
	}
	if p.Dynamics == nil {
		return fmt.Errorf("ocp: problem %q has no dynamics evaluator", p.Name)
	}
	if !p.InitialTime.Set || !p.FinalTime.Set {
		return fmt.Errorf("ocp: problem %q must bound initial and final time", p.Name)
	}
	for i, pc := range p.PathConstraints {
		if pc.Eval == nil {
			return fmt.Errorf("ocp: path constraint %d (%q) has no evaluator", i, pc.Name)
		}
		if len(pc.Bounds) == 0 {
			return fmt.Errorf("ocp: path constraint %d (%q) declares no outputs", i, pc.Name)
		}
	}
	for i, ec := range p.EndpointConstraints {
		if ec.Eval == nil {
			return fmt.Errorf("ocp: endpoint constraint %d (%q) has no evaluator", i, ec.Name)
		}
		if len(ec.Bounds) == 0 {
			return fmt.Errorf("ocp: endpoint constraint %d (%q) declares no outputs", i, ec.Name)
		}
	}
	for i, c := range p.Costs {
		if c.Integrand == nil && c.Endpoint == nil {
			return fmt.Errorf("ocp: cost term %d (%q) has neither integrand nor endpoint part", i, c.Name)
		}
	}
	return nil
}
