package recorder

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl"
	"github.com/UlloLabs/LSL2Logs/metric"
)

func newTestSession(t *testing.T, split bool) *Session {
	t.Helper()
	s, err := newSession(t.TempDir(), split, slog.Default(), metric.NewMetrics())
	require.NoError(t, err)
	return s
}

func TestSessionFilenames(t *testing.T) {
	s := newTestSession(t, true)
	defer s.Close()

	assert.Contains(t, s.DataPath(), "data_")
	assert.Contains(t, s.MetadataPath(), "metadata_")
	assert.True(t, strings.HasSuffix(s.DataPath(), ".csv"))

	stamp := s.StartedAt().Format(timestampLayout)
	assert.Contains(t, s.DataPath(), stamp)
	assert.Contains(t, s.MetadataPath(), stamp)
}

func TestSessionUnsplitHasNoMetadataFile(t *testing.T) {
	s := newTestSession(t, false)
	defer s.Close()

	assert.Empty(t, s.MetadataPath())
	assert.NoError(t, s.writeMetadata(lsl.StreamInfo{UID: "x"}), "no-op outside split mode")
}

func TestSessionRowLayouts(t *testing.T) {
	row := Row{
		UID:             "uid-1",
		Name:            "openbci",
		Type:            "EEG",
		Hostname:        "lab-pc",
		SourceID:        "dev-7",
		NominalSRate:    250,
		TimestampLocal:  12.5,
		TimestampSample: 12.496,
		Values:          []float64{1.5, -2},
	}

	t.Run("unsplit", func(t *testing.T) {
		s := newTestSession(t, false)
		require.NoError(t, s.writeRow(row))
		require.NoError(t, s.Close())

		records := readSessionCSV(t, s.DataPath())
		require.Len(t, records, 2)
		assert.Equal(t, unsplitFields, records[0])
		got := records[1]
		assert.Equal(t, "12.5", got[1])
		assert.Equal(t, "12.496", got[2])
		assert.Equal(t, "EEG", got[3])
		assert.Equal(t, "openbci", got[4])
		assert.Equal(t, "lab-pc", got[5])
		assert.Equal(t, "dev-7", got[6])
		assert.Equal(t, "250", got[7])
		assert.Equal(t, "[1.5, -2]", got[8])
	})

	t.Run("split", func(t *testing.T) {
		s := newTestSession(t, true)
		require.NoError(t, s.writeRow(row))
		require.NoError(t, s.writeMetadata(lsl.StreamInfo{
			UID: "uid-1", Name: "openbci", Type: "EEG",
			Hostname: "lab-pc", SourceID: "dev-7", NominalSRate: 250,
		}))
		require.NoError(t, s.Close())

		data := readSessionCSV(t, s.DataPath())
		require.Len(t, data, 2)
		assert.Equal(t, splitDataFields, data[0])
		assert.Equal(t, []string{"uid-1", "12.5", "12.496", "[1.5, -2]"}, data[1])

		meta := readSessionCSV(t, s.MetadataPath())
		require.Len(t, meta, 2)
		assert.Equal(t, metadataFields, meta[0])
		assert.Equal(t, "uid-1", meta[1][0])
		assert.Equal(t, "EEG", meta[1][3])
		assert.Equal(t, "250", meta[1][7])
	})
}

func TestSessionClosedRejectsWrites(t *testing.T) {
	s := newTestSession(t, true)
	require.NoError(t, s.Close())

	err := s.writeRow(Row{UID: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSessionClosed)

	err = s.writeMetadata(lsl.StreamInfo{UID: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSessionClosed)

	// double close is a no-op
	assert.NoError(t, s.Close())
}

func TestSessionMissingFolder(t *testing.T) {
	_, err := newSession("/nonexistent/folder/for/test", false, slog.Default(), metric.NewMetrics())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrOutputUnavailable)
}

func TestFormatValues(t *testing.T) {
	assert.Equal(t, "[]", formatValues(nil))
	assert.Equal(t, "[1.5]", formatValues([]float64{1.5}))
	assert.Equal(t, "[1, 2.25, -3]", formatValues([]float64{1, 2.25, -3}))
}

func readSessionCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}
