// Package transcribe converts continuous-time optimal-control problems into
// finite-dimensional nonlinear programs by direct collocation.
//
// A [Transcription] lays a heterogeneous variable set (time, states,
// controls, multipliers, derivatives, parameters, per-interval projection
// states and slacks) into dense per-kind matrices, generates the scheme's
// defect and continuity equations, and maintains the bijective
// flatten/expand mapping between the by-kind buffers and the packed vectors
// an NLP solver consumes. Bounds-derived affine scaling is applied
// consistently through every conversion.
//
// Three schemes are supported, selected by [Options].Scheme:
//
//   - trapezoidal: second-order trapezoid rule on the mesh itself
//   - legendre-gauss: collocation at interior Gauss points, degree 1-9
//   - legendre-gauss-radau: collocation at right Radau points, degree 1-9
//
// The scheme fixes the grid, the quadrature weights, the defect formulas,
// and the authoritative variable order used by the flatten step; the
// orchestrator owns the buffers and the constraint traversal.
//
// # Thread safety
//
// Transcription instances are NOT safe for concurrent use. The one
// parallelizable operation is the evaluation of the dynamics across grid
// points, enabled with [Options].Parallel; it produces bit-identical
// results to sequential evaluation because the per-point evaluations are
// independent and write-disjoint.
package transcribe
