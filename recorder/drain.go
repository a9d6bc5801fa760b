package recorder

import (
	"github.com/UlloLabs/LSL2Logs/lsl"
)

// drain empties every inlet's buffer into the session without waiting for
// samples. A lost stream stops its own drain and is left for the next
// reconciliation to remove; write failures stop the stream's drain for
// this pass and keep the others going.
func (r *Recorder) drain(session *Session) {
	r.registry.each(func(entry streamEntry) {
		count := 0
		for {
			sample, status, err := entry.inlet.Pull()
			if err != nil {
				r.logger.Warn("pull failed",
					"stream", entry.info.String(),
					"error", err)
				break
			}
			if status == lsl.PullLost {
				r.logger.Warn("stream broke, waiting for resolver to drop it",
					"stream", entry.info.String())
				break
			}
			if status == lsl.PullEmpty {
				break
			}

			row := newRow(entry.info, sample)
			if err := session.writeRow(row); err != nil {
				r.logger.Error("data write failed",
					"stream", entry.info.String(),
					"error", err)
				break
			}
			count++
			r.metrics.RecordSampleDrained(entry.info.Type)

			if r.sink != nil {
				r.sink.Publish(row)
			}
		}
		r.metrics.RecordDrainBatch(count)
	})
}
