// Package buffer provides a generic, thread-safe bounded ring buffer.
//
// Inlets use it as their retention window: samples arriving from the
// network are written at the producer's pace and pulled by the recorder
// loop at its own pace. When the buffer fills, the overflow policy decides
// what gives:
//
//   - DropOldest: the oldest retained item is discarded (default, matches
//     the bounded-retention semantics of an LSL inlet buffer)
//   - DropNewest: the incoming item is discarded
//
// Statistics are always collected; Prometheus export is optional via
// WithMetrics:
//
//	ring, err := buffer.NewRing[lsl.Sample](1000,
//	    buffer.WithOverflowPolicy[lsl.Sample](buffer.DropOldest),
//	    buffer.WithMetrics[lsl.Sample](registry, "inlet_eeg"))
//
// All operations are safe for concurrent use.
package buffer
