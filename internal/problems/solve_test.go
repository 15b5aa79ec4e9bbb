package problems

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/nlp"
	"github.com/san-kum/trajopt/internal/transcribe"
)

// End-to-end: the minimum-effort transfer has the analytic optimum
// u(t) = 6 - 12t with objective 12. The penalty solver is not a precision
// method, so the assertions are loose.
func TestSolveDoubleIntegrator(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end solve in short mode")
	}

	p := NewDoubleIntegrator()
	tr, err := transcribe.New(p, transcribe.Options{
		Scheme: transcribe.SchemeTrapezoidal,
		Mesh:   transcribe.UniformMesh(5),
	})
	if err != nil {
		t.Fatal(err)
	}

	sol, err := tr.Solve(context.Background(), nlp.NewPenalty(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if math.IsNaN(sol.Objective) || sol.Objective <= 1 || sol.Objective >= 100 {
		t.Errorf("objective = %v, want near 12", sol.Objective)
	}
	for i, v := range sol.ConstraintValues {
		if math.Abs(v) > 0.05 {
			t.Errorf("constraint %d = %v, want near 0", i, v)
		}
	}

	states := sol.Kind(transcribe.KindStates)
	_, cols := states.Dims()
	if v := states.At(0, 0); math.Abs(v) > 0.01 {
		t.Errorf("initial position = %v, want 0", v)
	}
	if v := states.At(0, cols-1); math.Abs(v-1) > 0.01 {
		t.Errorf("final position = %v, want 1", v)
	}
	if len(sol.Breakdown) != 1 || sol.Breakdown[0].Name != "effort" {
		t.Errorf("breakdown = %+v", sol.Breakdown)
	}
}
