package lsl

import "fmt"

// StreamInfo is the immutable identity of a discovered stream.
// It is produced by a resolver and read-only to the recorder.
type StreamInfo struct {
	// UID uniquely identifies one advertisement of a stream. A restarted
	// source advertises a new UID even if name and type are unchanged.
	UID string `json:"uid"`

	// Name is the human-readable stream name (e.g. "BioSemi").
	Name string `json:"name"`

	// Type is the content type (e.g. "EEG", "HR", "Markers").
	Type string `json:"type"`

	// Hostname is the machine advertising the stream.
	Hostname string `json:"hostname"`

	// SourceID is a stable identifier of the producing device, if the
	// source sets one.
	SourceID string `json:"source_id"`

	// NominalSRate is the advertised sampling rate in Hz, 0 for
	// irregular-rate streams.
	NominalSRate float64 `json:"nominal_srate"`
}

// String returns a compact identity for logging.
func (si StreamInfo) String() string {
	return fmt.Sprintf("%s/%s@%s (%s)", si.Name, si.Type, si.Hostname, si.UID)
}

// Sample is one value vector with its source-side timestamp.
type Sample struct {
	// Values is the sample's channel data.
	Values []float64 `json:"values"`

	// Timestamp is the source-side capture time in seconds on the
	// stream's clock.
	Timestamp float64 `json:"timestamp"`
}

// PullStatus is the outcome of one non-blocking pull on an inlet.
type PullStatus int

const (
	// PullOK means a sample was returned.
	PullOK PullStatus = iota
	// PullEmpty means no sample was buffered at the time of the pull.
	PullEmpty
	// PullLost means the stream is gone and will not produce again under
	// this UID. The resolver is expected to drop it shortly.
	PullLost
)

// String returns the string representation of a PullStatus.
func (ps PullStatus) String() string {
	switch ps {
	case PullOK:
		return "ok"
	case PullEmpty:
		return "empty"
	case PullLost:
		return "lost"
	default:
		return "unknown"
	}
}

// BufferCapacity converts a retention window in seconds to a sample count
// for a stream. Irregular-rate streams (NominalSRate == 0) are sized at 100
// samples per second, following the LSL convention.
func BufferCapacity(info StreamInfo, seconds int) int {
	if seconds <= 0 {
		seconds = 1
	}
	rate := info.NominalSRate
	if rate <= 0 {
		rate = 100
	}
	return int(rate) * seconds
}
