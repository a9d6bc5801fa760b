// Package lsl defines the contract between the recorder and a Lab
// Streaming Layer transport.
//
// Discovery, per-stream delivery, buffering and clock synchronization are
// the transport's job; the recorder only consumes this interface. The
// repository ships one production transport (lsl/natsbridge) and test
// fakes, but any implementation of Transport plugs in.
//
// The pull contract is tri-state: every Pull returns a sample, or reports
// the buffer empty, or reports the stream lost. Stream loss is an expected
// event, not an error - callers branch on PullStatus instead of unwrapping
// exceptions.
package lsl
