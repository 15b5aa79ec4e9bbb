package transcribe

import (
	"math"
	"testing"
)

// Controls already on the interval-endpoint interpolant leave zero residuals;
// a perturbed interior sample shows up in exactly one residual.
func TestInterpolatedControlResiduals(t *testing.T) {
	for _, o := range []Options{
		{Scheme: SchemeLegendreGauss, Degree: 2, Mesh: UniformMesh(2), InterpolateControls: true},
		{Scheme: SchemeLegendreGaussRadau, Degree: 3, Mesh: UniformMesh(2), InterpolateControls: true},
	} {
		tr, err := New(linearProblem(), o)
		if err != nil {
			t.Fatalf("%s: %v", o.Scheme, err)
		}

		it := tr.InitialGuessFromBounds()
		for k, g := range tr.Grid() {
			it.Variables[KindControls].Set(0, k, 2*g-1)
		}

		cs, err := tr.assemble(it)
		if err != nil {
			t.Fatalf("%s: %v", o.Scheme, err)
		}
		rows, cols := cs.interp.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if v := cs.interp.At(r, c); math.Abs(v) > 1e-12 {
					t.Errorf("%s: residual (%d,%d) = %v, want 0", o.Scheme, r, c, v)
				}
			}
		}

		// Bump one interior control: that sample's residual moves by the bump.
		ctrl := tr.ControlIndices()
		interior := -1
		for k := 0; k < ctrl.Len(); k++ {
			if ctrl.AtVec(k) == 0 {
				interior = k
				break
			}
		}
		if interior < 0 {
			t.Fatalf("%s: no interpolated control samples", o.Scheme)
		}
		it.Variables[KindControls].Set(0, interior, it.Variables[KindControls].At(0, interior)+0.25)
		cs, err = tr.assemble(it)
		if err != nil {
			t.Fatalf("%s: %v", o.Scheme, err)
		}
		nonzero := 0
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if math.Abs(cs.interp.At(r, c)) > 1e-12 {
					nonzero++
					if math.Abs(cs.interp.At(r, c)-0.25) > 1e-12 {
						t.Errorf("%s: perturbed residual = %v, want 0.25", o.Scheme, cs.interp.At(r, c))
					}
				}
			}
		}
		if nonzero != 1 {
			t.Errorf("%s: %d residuals moved, want 1", o.Scheme, nonzero)
		}
	}
}
