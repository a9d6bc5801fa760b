// Package monitor serves a WebSocket live tail of the recorder's output.
// Every drained row is broadcast as one JSON message to all connected
// clients. Clients that cannot keep up are disconnected rather than
// allowed to stall the recorder loop.
//
// The monitor implements recorder.RowSink; wire it with
// recorder.WithRowSink. It is an observation aid only, the CSV session is
// the system of record.
package monitor
