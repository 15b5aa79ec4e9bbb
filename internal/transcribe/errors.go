package transcribe

import "errors"

// Configuration and dimension errors surfaced to the caller. Internal
// consistency violations (flat-index or shape mismatches during
// flatten/expand) indicate a scheme bug, not user input, and panic instead.
var (
	// ErrUnknownScheme indicates an unrecognized scheme name.
	ErrUnknownScheme = errors.New("transcribe: unknown transcription scheme")

	// ErrIncompatibleOptions indicates a scheme/solver option combination
	// rejected at construction.
	ErrIncompatibleOptions = errors.New("transcribe: solver options incompatible with scheme")

	// ErrInvalidMesh indicates mesh fractions that are not strictly
	// increasing from 0 to 1.
	ErrInvalidMesh = errors.New("transcribe: mesh must be strictly increasing fractions from 0 to 1")

	// ErrInvalidDegree indicates a polynomial degree outside the supported
	// range for a collocation scheme.
	ErrInvalidDegree = errors.New("transcribe: polynomial degree out of range")

	// ErrDimension indicates an evaluator returned a slice whose length
	// disagrees with the problem's declared counts.
	ErrDimension = errors.New("transcribe: evaluator output dimension mismatch")
)
