package transcribe

// VariableKind identifies one of the variable families laid out by a
// transcription. Kinds index fixed-size arrays throughout the package so
// every kind is always present without map lookups.
type VariableKind int

const (
	KindInitialTime VariableKind = iota
	KindFinalTime
	KindStates
	KindControls
	KindMultipliers
	KindDerivatives
	KindParameters
	KindProjectionStates
	KindSlacks

	numKinds
)

var kindNames = [numKinds]string{
	"initial_time",
	"final_time",
	"states",
	"controls",
	"multipliers",
	"derivatives",
	"parameters",
	"projection_states",
	"slacks",
}

func (k VariableKind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// allKinds is the kind-major order used everywhere a traversal walks whole
// kinds at a time: scaling, bound assembly, and iterate labeling. It is
// deliberately distinct from the scheme's detailed column order used by
// flattenVariables; the per-interval kinds owned by the Legendre schemes
// come last.
var allKinds = []VariableKind{
	KindInitialTime,
	KindFinalTime,
	KindParameters,
	KindStates,
	KindControls,
	KindMultipliers,
	KindDerivatives,
	KindProjectionStates,
	KindSlacks,
}

// VarIndex addresses one column of one variable kind. A scheme's variable
// order is a sequence of these.
type VarIndex struct {
	Kind VariableKind
	Col  int
}
