// Package natsbridge implements the lsl.Transport contract over NATS
// subjects, for deployments that relay LSL traffic through a NATS broker
// instead of multicast discovery.
//
// # Wire layout
//
// Sources announce themselves periodically and publish samples per stream:
//
//	lsl.announce.<uid>  - JSON lsl.StreamInfo, repeated every interval
//	lsl.data.<uid>      - JSON lsl.Sample, one message per sample
//
// The bridge subscribes to the announce wildcard and keeps a last-seen
// table per UID. A stream that has not re-announced within the forget-after
// window (default 5s) disappears from Results, which is exactly the
// staleness contract the recorder's reconciler expects.
//
// Inlets subscribe to the stream's data subject and retain samples in a
// bounded ring buffer sized from the nominal rate and the configured
// retention seconds. When the subscription dies the next Pull reports
// lsl.PullLost.
//
// The package also provides Outlet, the publishing side of the bridge,
// used by tools and tests to advertise a stream and push samples.
package natsbridge
