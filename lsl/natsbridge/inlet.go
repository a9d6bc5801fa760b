package natsbridge

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/UlloLabs/LSL2Logs/lsl"
	"github.com/UlloLabs/LSL2Logs/pkg/buffer"
)

// inlet is a subscription to one stream's data subject. Incoming samples
// land in a ring buffer sized from the stream's nominal rate; Pull drains
// them without waiting.
type inlet struct {
	bridge *Bridge
	info   lsl.StreamInfo
	sub    *nats.Subscription
	ring   buffer.Buffer[lsl.Sample]

	mu     sync.Mutex
	closed bool
}

var _ lsl.Inlet = (*inlet)(nil)

func newInlet(b *Bridge, info lsl.StreamInfo, bufferSeconds int) (*inlet, error) {
	ring, err := buffer.NewRing[lsl.Sample](
		lsl.BufferCapacity(info, bufferSeconds),
		buffer.WithOverflowPolicy[lsl.Sample](buffer.DropOldest),
	)
	if err != nil {
		return nil, err
	}

	in := &inlet{
		bridge: b,
		info:   info,
		ring:   ring,
	}

	sub, err := b.nc.Subscribe(dataSubject(info.UID), in.onData)
	if err != nil {
		_ = ring.Close()
		return nil, err
	}
	in.sub = sub

	b.logger.Debug("inlet opened",
		"uid", info.UID,
		"name", info.Name,
		"buffer_capacity", ring.Capacity())

	return in, nil
}

// onData decodes one sample message into the ring.
func (in *inlet) onData(msg *nats.Msg) {
	var sample lsl.Sample
	if err := json.Unmarshal(msg.Data, &sample); err != nil {
		in.bridge.logger.Warn("dropping malformed sample",
			"uid", in.info.UID, "error", err)
		return
	}

	// Ring is DropOldest so a full buffer never blocks the NATS callback.
	_ = in.ring.Write(sample)

	if in.bridge.metrics != nil {
		in.bridge.metrics.samplesReceived.Inc()
	}
}

// Info returns the descriptor this inlet was opened for.
func (in *inlet) Info() lsl.StreamInfo {
	return in.info
}

// Pull drains one buffered sample without waiting. A dead subscription or
// closed bridge reports PullLost even if samples remain buffered, matching
// the behavior of a lost network stream.
func (in *inlet) Pull() (lsl.Sample, lsl.PullStatus, error) {
	in.mu.Lock()
	closed := in.closed
	in.mu.Unlock()

	if closed || in.bridge.isClosed() || !in.sub.IsValid() {
		return lsl.Sample{}, lsl.PullLost, nil
	}

	sample, ok := in.ring.Read()
	if !ok {
		return lsl.Sample{}, lsl.PullEmpty, nil
	}
	return sample, lsl.PullOK, nil
}

// Close unsubscribes and discards undrained samples. Safe to call twice.
func (in *inlet) Close() error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	in.mu.Unlock()

	err := in.sub.Unsubscribe()
	_ = in.ring.Close()

	in.bridge.logger.Debug("inlet closed", "uid", in.info.UID)

	// a subscription already torn down by bridge shutdown is not an error
	if err != nil && !errors.Is(err, nats.ErrBadSubscription) && !errors.Is(err, nats.ErrConnectionClosed) {
		return err
	}
	return nil
}
