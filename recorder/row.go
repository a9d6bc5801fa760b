package recorder

import (
	"strconv"
	"strings"
	"time"

	"github.com/UlloLabs/LSL2Logs/lsl"
)

// timestampLayout renders wall-clock times with microsecond precision,
// matching ISO 8601 local time.
const timestampLayout = "2006-01-02T15:04:05.000000"

// Row is one drained sample with its stream identity and capture times.
// It is what the session renders to CSV and what the live monitor
// broadcasts.
type Row struct {
	UID             string    `json:"uid"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Hostname        string    `json:"hostname"`
	SourceID        string    `json:"source_id"`
	NominalSRate    float64   `json:"nominal_srate"`
	DateLocal       time.Time `json:"date_local"`
	TimestampLocal  float64   `json:"timestamp_local"`
	TimestampSample float64   `json:"timestamp_sample"`
	Values          []float64 `json:"data"`
}

// newRow stamps a drained sample with the local wall clock and the
// monotonic recorder clock.
func newRow(info lsl.StreamInfo, sample lsl.Sample) Row {
	return Row{
		UID:             info.UID,
		Name:            info.Name,
		Type:            info.Type,
		Hostname:        info.Hostname,
		SourceID:        info.SourceID,
		NominalSRate:    info.NominalSRate,
		DateLocal:       time.Now(),
		TimestampLocal:  lsl.LocalClock(),
		TimestampSample: sample.Timestamp,
		Values:          sample.Values,
	}
}

// RowSink receives rows as they are drained. Implementations must not
// block; the recorder calls Publish from its loop goroutine.
type RowSink interface {
	Publish(row Row)
}

// formatFloat renders a float the way the CSV columns expect, without
// exponent notation for timestamp-scale values.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatValues renders the sample vector as a bracketed list, e.g.
// "[1.5, 2.5]".
func formatValues(values []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatFloat(v))
	}
	b.WriteByte(']')
	return b.String()
}
