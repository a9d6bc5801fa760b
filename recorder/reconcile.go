package recorder

import (
	"time"

	"github.com/UlloLabs/LSL2Logs/lsl"
)

// reconcile aligns the registry with the current discovery snapshot by set
// difference: streams that vanished are closed and removed, new streams get
// an inlet. A failed inlet open skips that stream for this pass; it is
// retried naturally when the next snapshot still lists it. session may be
// nil when idle; in split mode new streams get a metadata row.
func (r *Recorder) reconcile(session *Session) {
	start := time.Now()
	defer func() {
		r.metrics.RecordReconcileDuration(time.Since(start))
	}()

	current := make(map[string]lsl.StreamInfo)
	for _, info := range r.transport.Results() {
		if !r.pred.Match(info) {
			continue
		}
		current[info.UID] = info
	}

	// prune vanished streams
	for _, uid := range r.registry.UIDs() {
		if _, alive := current[uid]; alive {
			continue
		}
		info, inlet, err := r.registry.Remove(uid)
		if err != nil {
			continue
		}
		if inlet != nil {
			_ = inlet.Close()
		}
		r.metrics.RecordStreamRemoved(r.registry.Len())
		r.logger.Info("lost stream",
			"name", info.Name,
			"type", info.Type,
			"hostname", info.Hostname,
			"uid", info.UID)
	}

	// subscribe to new streams
	for uid, info := range current {
		if r.registry.Contains(uid) {
			continue
		}

		inlet, err := r.transport.OpenInlet(info, r.config.BufferSeconds)
		if err != nil {
			r.metrics.RecordInletOpenFailure()
			r.logger.Warn("inlet open failed",
				"stream", info.String(),
				"error", err)
			continue
		}

		if err := r.registry.Add(info, inlet); err != nil {
			_ = inlet.Close()
			continue
		}

		r.metrics.RecordStreamAdded(r.registry.Len())
		r.logger.Info("got new stream",
			"name", info.Name,
			"type", info.Type,
			"hostname", info.Hostname,
			"uid", info.UID)

		if session != nil {
			if err := session.writeMetadata(info); err != nil {
				r.logger.Warn("metadata write failed",
					"stream", info.String(),
					"error", err)
			}
		}
	}
}
