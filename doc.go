// Package lsl2logs records live Lab Streaming Layer (LSL) data streams to
// timestamped CSV files.
//
// # Architecture
//
// A single control loop drives three stages in sequence:
//
//	┌──────────────┐    ┌──────────────┐    ┌──────────────┐
//	│   Resolver    │ →  │  Reconciler  │ →  │   Drainer    │
//	│ (discovery)   │    │ (set diff)   │    │ (zero-wait   │
//	└──────────────┘    └──────────────┘    │  pulls)      │
//	                                        └──────┬───────┘
//	                                               ↓
//	                                        ┌──────────────┐
//	                                        │   CSV Sink   │
//	                                        └──────────────┘
//
// Discovery and per-stream transport are external collaborators behind the
// lsl.Transport contract. The repository ships one production transport, a
// NATS bridge (lsl/natsbridge) for deployments that relay LSL traffic over
// NATS subjects, and test fakes for everything else.
//
// # Packages
//
// Core:
//   - recorder: known-stream registry, reconciliation, draining, CSV
//     sessions, and the recorder controller (blocking Run or manual Step)
//   - lsl: collaborator contract (StreamInfo, Sample, tri-state pull)
//   - lsl/predicate: boolean stream filter expressions ("type='EEG'")
//   - lsl/natsbridge: Transport implementation over NATS subjects
//
// Infrastructure:
//   - errors: classified error handling (transient/invalid/fatal)
//   - metric: Prometheus registry and HTTP exposition
//   - monitor: optional WebSocket live tail of recorded rows
//   - pkg/buffer: bounded ring buffer with overflow policies
//   - config: JSON configuration with environment overrides
//
// # Binary
//
//	# record every visible stream into ./logs
//	lsl2logs --output-folder ./logs
//
//	# record only EEG streams, split metadata into its own file
//	lsl2logs --pred "type='EEG'" --split-metadata
//
// The process runs until interrupted; SIGINT/SIGTERM close the active
// session cleanly and exit 0.
package lsl2logs
