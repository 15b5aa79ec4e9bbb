// Package nlp defines the packed nonlinear-program boundary between the
// transcription and whatever solver minimizes it.
//
// The transcription produces a [Problem] — flat decision and constraint
// vectors with matching bounds — and consumes a [Result]. Any back end
// implementing [Solver] can be plugged in; the bundled [Penalty] solver is a
// quadratic-penalty loop over gonum/optimize, sufficient for the example
// problems and for integration tests.
package nlp
