package lsl

// Resolver continuously discovers currently-advertised streams.
type Resolver interface {
	// Results returns a snapshot of the streams visible right now.
	// Implementations apply their own staleness window: a stream that has
	// not re-announced within the window disappears from the snapshot.
	Results() []StreamInfo
}

// Inlet is an open subscription to one stream. It owns a bounded receive
// buffer; samples arriving while nobody pulls are retained up to the
// buffer's capacity and then discarded oldest-first.
type Inlet interface {
	// Info returns the descriptor this inlet was opened for.
	Info() StreamInfo

	// Pull attempts a zero-wait retrieval of the next buffered sample.
	// The error is non-nil only for failures unrelated to stream state;
	// loss of the stream is reported as PullLost, not as an error.
	Pull() (Sample, PullStatus, error)

	// Close releases the subscription. Undrained samples are discarded.
	Close() error
}

// Transport bundles discovery and subscription for one backend.
type Transport interface {
	Resolver

	// OpenInlet subscribes to a stream. bufferSeconds is a retention hint
	// converted to a sample count via BufferCapacity.
	OpenInlet(info StreamInfo, bufferSeconds int) (Inlet, error)

	// Close shuts the transport down; open inlets become lost.
	Close() error
}
