// Package problems bundles ready-made optimal-control declarations used by
// the CLI and the end-to-end tests.
package problems
