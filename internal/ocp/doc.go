// Package ocp declares the optimal-control problem surface consumed by the
// transcription engine.
//
// A [Problem] bundles dimension counts, per-variable [Bounds], a point-wise
// dynamics evaluator, and named path/endpoint constraint and cost evaluators:
//
//   - [DynamicsFunc]: (t, x, u, p) -> state derivative plus optional residuals
//   - [PathConstraint]: enforced along the trajectory
//   - [EndpointConstraint]: enforced once over the endpoints
//   - [CostTerm]: integral and/or endpoint objective contribution
//
// The package holds no algebra of its own; everything here is an input to
// the transcribe package.
package ocp
