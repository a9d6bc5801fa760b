// Package errors provides standardized error handling for LSL2Logs.
//
// # Overview
//
// The package implements a three-class error classification: Transient
// (temporary, the next loop iteration may succeed), Invalid (bad input or
// configuration, do not retry), and Fatal (unrecoverable, stop recording).
//
// Classification lets the recorder decide how to react to a failure without
// matching error strings: a lost stream is transient and handled by the
// next reconciliation pass, a bad predicate is invalid and reported once,
// an unwritable output file is fatal for the session.
//
// # Quick Start
//
// Return standard error variables for known conditions:
//
//	if r.session != nil {
//	    return errors.ErrAlreadyRecording
//	}
//
// Wrap errors with context using the "component.method: action failed: %w"
// pattern:
//
//	if err := inlet.Close(); err != nil {
//	    return errors.Wrap(err, "Registry", "Remove", "close inlet")
//	}
//
// Check classification when deciding how to proceed:
//
//	if errors.IsTransient(err) {
//	    // keep looping, the resolver will sort it out
//	}
//
// All error types support errors.Is, errors.As and wrapping chains from the
// standard library.
package errors
