package transcribe

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

// Collocation node and weight construction on the normalized interval [0, 1],
// plus the Lagrange differentiation matrices the defect equations multiply
// against. Nodes are computed once per scheme instance.

// gaussNodes returns the degree-d Gauss-Legendre nodes and quadrature weights
// on (0, 1). The weights sum to 1.
func gaussNodes(d int) (nodes, weights []float64) {
	nodes = make([]float64, d)
	weights = make([]float64, d)
	quad.Legendre{}.FixedLocations(nodes, weights, 0, 1)
	// FixedLocations fills the nodes in descending order; the grid and the
	// differentiation matrices need them ascending.
	for i, j := 0, d-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
		weights[i], weights[j] = weights[j], weights[i]
	}
	return nodes, weights
}

// radauNodes returns the degree-d right Legendre-Gauss-Radau nodes and
// quadrature weights on (0, 1]. The last node is exactly 1 and the weights
// sum to 1.
func radauNodes(d int) (nodes, weights []float64) {
	// Left Radau nodes on [-1, 1] are -1 plus the d-1 interior roots of
	// P_{d-1} + P_d; the right variant is the negation.
	interior := radauInteriorRoots(d)

	nodes = make([]float64, d)
	weights = make([]float64, d)
	for i, x := range interior {
		// Sorted ascending after negation: the largest left-Radau interior
		// root maps to the smallest right node.
		j := d - 2 - i
		nodes[j] = -x
		pm, _ := legendre(d-1, x)
		w := (1 - x) / (float64(d*d) * pm * pm)
		weights[j] = w / 2
	}
	nodes[d-1] = 1
	weights[d-1] = (2 / float64(d*d)) / 2
	for i := range nodes {
		nodes[i] = (nodes[i] + 1) / 2
	}
	return nodes, weights
}

// radauInteriorRoots finds the d-1 roots of P_{d-1} + P_d inside (-1, 1) by
// sign-change bracketing and bisection, returned in ascending order.
func radauInteriorRoots(d int) []float64 {
	f := func(x float64) float64 {
		pa, _ := legendre(d-1, x)
		pb, _ := legendre(d, x)
		return pa + pb
	}
	// x = -1 is always a root of P_{d-1} + P_d; start just inside it.
	const eps = 1e-9
	n := 512 * d
	roots := make([]float64, 0, d-1)
	prevX := -1 + eps
	prevF := f(prevX)
	for i := 1; i <= n; i++ {
		x := -1 + eps + (2-2*eps)*float64(i)/float64(n)
		fx := f(x)
		if prevF == 0 {
			roots = append(roots, prevX)
		} else if prevF*fx < 0 {
			roots = append(roots, bisect(f, prevX, x))
		}
		prevX, prevF = x, fx
	}
	if len(roots) != d-1 {
		panic("transcribe: radau root bracketing failed; expected d-1 interior roots")
	}
	return roots
}

func bisect(f func(float64) float64, a, b float64) float64 {
	fa := f(a)
	for i := 0; i < 200; i++ {
		m := (a + b) / 2
		fm := f(m)
		if fm == 0 || (b-a)/2 < 1e-16 {
			return m
		}
		if fa*fm < 0 {
			b = m
		} else {
			a, fa = m, fm
		}
	}
	return (a + b) / 2
}

// legendre evaluates the Legendre polynomial P_n and its derivative at x via
// the three-term recurrence.
func legendre(n int, x float64) (p, dp float64) {
	if n == 0 {
		return 1, 0
	}
	p0, p1 := 1.0, x
	dp0, dp1 := 0.0, 1.0
	for k := 2; k <= n; k++ {
		kf := float64(k)
		p2 := ((2*kf-1)*x*p1 - (kf-1)*p0) / kf
		dp2 := ((2*kf-1)*(p1+x*dp1) - (kf-1)*dp0) / kf
		p0, p1 = p1, p2
		dp0, dp1 = dp1, dp2
	}
	return p1, dp1
}

// barycentricWeights computes the barycentric interpolation weights for a set
// of distinct nodes.
func barycentricWeights(nodes []float64) []float64 {
	w := make([]float64, len(nodes))
	for j := range nodes {
		prod := 1.0
		for m := range nodes {
			if m != j {
				prod *= nodes[j] - nodes[m]
			}
		}
		w[j] = 1 / prod
	}
	return w
}

// differentiationMatrix builds the (len(nodes) x d) matrix D with
// D[j][k] = L_j'(nodes[k+1]), the derivative of the j-th Lagrange basis over
// all nodes evaluated at the k-th collocation node. nodes[0] is the interval
// start; nodes[1..d] are the collocation points.
func differentiationMatrix(nodes []float64) *mat.Dense {
	n := len(nodes)
	d := n - 1
	bw := barycentricWeights(nodes)
	D := mat.NewDense(n, d, nil)
	for k := 0; k < d; k++ {
		c := k + 1
		diag := 0.0
		for j := 0; j < n; j++ {
			if j == c {
				continue
			}
			v := (bw[j] / bw[c]) / (nodes[c] - nodes[j])
			D.Set(j, k, v)
			diag -= v
		}
		D.Set(c, k, diag)
	}
	return D
}

// interpolationCoefficients returns the Lagrange basis values at tau for the
// given nodes; multiplying the state samples by this vector interpolates the
// state at tau.
func interpolationCoefficients(nodes []float64, tau float64) *mat.VecDense {
	n := len(nodes)
	coeffs := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		ell := 1.0
		for m := 0; m < n; m++ {
			if m != j {
				ell *= (tau - nodes[m]) / (nodes[j] - nodes[m])
			}
		}
		coeffs.SetVec(j, ell)
	}
	return coeffs
}

// meshIntervalWidths returns the widths of consecutive mesh fractions.
func meshIntervalWidths(mesh []float64) []float64 {
	h := make([]float64, len(mesh)-1)
	for i := range h {
		h[i] = mesh[i+1] - mesh[i]
	}
	return h
}

func isFiniteNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
