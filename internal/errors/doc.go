// Package errors provides coded, structured errors for reflex.
//
// Every failure the engine reports to a diagnostic channel carries a code
// (e.g. "R001") that maps to a short message, a longer explanation and a hint:
//
//	err := errors.New(errors.CodeBindingNotFound).
//	    WithDetailf("no data for entity %q", id)
//
//	fmt.Println(err.FormatCompact())
//	// R001: Binding data not found
//
// # Categories
//
//   - binding: a view binding could not be resolved
//   - template: a template failed to compile or render
//   - scheduler: a flush task failed
//   - config: configuration could not be loaded or is invalid
//
// Errors wrap their cause, so errors.Is and errors.As see through them.
package errors
