// Package recorder is the core of lsl2logs: it reconciles a set of known
// streams against discovery snapshots, drains buffered samples without
// waiting, and appends rows to timestamped CSV files.
//
// The Recorder owns an explicit Session while recording; when idle the
// reconciliation loop still runs so inlets stay warm and a later session
// starts with their buffered samples. One internal step (reconcile, then
// drain into the session) is shared by the blocking Run loop and the
// caller-driven Step method.
package recorder
