package recorder

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl"
	"github.com/UlloLabs/LSL2Logs/metric"
)

// CSV column sets. The unsplit layout carries stream identity on every
// data row; the split layout moves it to a companion metadata file keyed
// by uid.
var (
	unsplitFields   = []string{"date_local", "timestamp_local", "timestamp_sample", "type", "name", "hostname", "source_id", "nominal_srate", "data"}
	splitDataFields = []string{"uid", "timestamp_local", "timestamp_sample", "data"}
	metadataFields  = []string{"uid", "date_local", "timestamp_local", "type", "name", "hostname", "source_id", "nominal_srate"}
)

// Session is one recording session: a data CSV file plus, in split mode, a
// metadata CSV file, both named after the session start time. Rows append
// until Close; a closed session rejects further writes.
type Session struct {
	id        string
	split     bool
	startedAt time.Time

	dataPath string
	dataFile *os.File
	data     *csv.Writer

	metaPath string
	metaFile *os.File
	meta     *csv.Writer

	logger  *slog.Logger
	metrics *metric.Metrics
	closed  bool
}

// newSession creates the session files under folder. The folder must
// already exist; a missing folder is reported as ErrOutputUnavailable and
// nothing is created.
func newSession(folder string, split bool, logger *slog.Logger, metrics *metric.Metrics) (*Session, error) {
	stat, err := os.Stat(folder)
	if err != nil || !stat.IsDir() {
		return nil, errors.WrapInvalid(errors.ErrOutputUnavailable, "Session", "newSession",
			fmt.Sprintf("output folder %q does not exist", folder))
	}

	s := &Session{
		id:        uuid.New().String(),
		split:     split,
		startedAt: time.Now(),
		logger:    logger,
		metrics:   metrics,
	}

	stamp := s.startedAt.Format(timestampLayout)
	s.dataPath = filepath.Join(folder, "data_"+stamp+".csv")

	s.dataFile, err = os.OpenFile(s.dataPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "Session", "newSession", "open data file")
	}
	s.data = csv.NewWriter(s.dataFile)

	if err := s.data.Write(s.dataFields()); err != nil {
		_ = s.dataFile.Close()
		return nil, errors.Wrap(err, "Session", "newSession", "write data header")
	}

	if split {
		s.metaPath = filepath.Join(folder, "metadata_"+stamp+".csv")
		s.metaFile, err = os.OpenFile(s.metaPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			_ = s.dataFile.Close()
			return nil, errors.Wrap(err, "Session", "newSession", "open metadata file")
		}
		s.meta = csv.NewWriter(s.metaFile)

		if err := s.meta.Write(metadataFields); err != nil {
			_ = s.dataFile.Close()
			_ = s.metaFile.Close()
			return nil, errors.Wrap(err, "Session", "newSession", "write metadata header")
		}
	}

	s.flush()

	logger.Info("recording session started",
		"session", s.id,
		"data_file", s.dataPath,
		"metadata_file", s.metaPath,
		"split", split)

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// DataPath returns the path of the data CSV file.
func (s *Session) DataPath() string { return s.dataPath }

// MetadataPath returns the path of the metadata CSV file, empty when the
// session is not split.
func (s *Session) MetadataPath() string { return s.metaPath }

// StartedAt returns the session start time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) dataFields() []string {
	if s.split {
		return splitDataFields
	}
	return unsplitFields
}

// writeRow appends one drained sample to the data file.
func (s *Session) writeRow(row Row) error {
	if s.closed {
		return errors.WrapInvalid(errors.ErrSessionClosed, "Session", "writeRow", "session closed")
	}

	var record []string
	if s.split {
		record = []string{
			row.UID,
			formatFloat(row.TimestampLocal),
			formatFloat(row.TimestampSample),
			formatValues(row.Values),
		}
	} else {
		record = []string{
			row.DateLocal.Format(timestampLayout),
			formatFloat(row.TimestampLocal),
			formatFloat(row.TimestampSample),
			row.Type,
			row.Name,
			row.Hostname,
			row.SourceID,
			formatFloat(row.NominalSRate),
			formatValues(row.Values),
		}
	}

	if err := s.data.Write(record); err != nil {
		s.metrics.RecordWriteError()
		return errors.WrapTransient(err, "Session", "writeRow", "append data row")
	}
	s.data.Flush()
	if err := s.data.Error(); err != nil {
		s.metrics.RecordWriteError()
		return errors.WrapTransient(err, "Session", "writeRow", "flush data row")
	}

	s.metrics.RecordRowWritten("data")
	return nil
}

// writeMetadata appends one stream descriptor to the metadata file. A no-op
// outside split mode since the unsplit layout carries metadata per row.
func (s *Session) writeMetadata(info lsl.StreamInfo) error {
	if !s.split {
		return nil
	}
	if s.closed {
		return errors.WrapInvalid(errors.ErrSessionClosed, "Session", "writeMetadata", "session closed")
	}

	record := []string{
		info.UID,
		time.Now().Format(timestampLayout),
		formatFloat(lsl.LocalClock()),
		info.Type,
		info.Name,
		info.Hostname,
		info.SourceID,
		formatFloat(info.NominalSRate),
	}

	if err := s.meta.Write(record); err != nil {
		s.metrics.RecordWriteError()
		return errors.WrapTransient(err, "Session", "writeMetadata", "append metadata row")
	}
	s.meta.Flush()
	if err := s.meta.Error(); err != nil {
		s.metrics.RecordWriteError()
		return errors.WrapTransient(err, "Session", "writeMetadata", "flush metadata row")
	}

	s.metrics.RecordRowWritten("metadata")
	return nil
}

func (s *Session) flush() {
	s.data.Flush()
	if s.meta != nil {
		s.meta.Flush()
	}
}

// Close flushes and closes the session files. Safe to call twice.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.flush()

	var firstErr error
	if err := s.dataFile.Close(); err != nil {
		firstErr = errors.Wrap(err, "Session", "Close", "close data file")
	}
	if s.metaFile != nil {
		if err := s.metaFile.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "Session", "Close", "close metadata file")
		}
	}

	s.logger.Info("recording session stopped",
		"session", s.id,
		"data_file", s.dataPath)

	return firstErr
}
