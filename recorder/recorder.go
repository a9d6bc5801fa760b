package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl"
	"github.com/UlloLabs/LSL2Logs/lsl/predicate"
	"github.com/UlloLabs/LSL2Logs/metric"
)

const (
	// DefaultLoopInterval is the pause between loop passes. It bounds the
	// resolution of the local timestamps stamped on drained samples.
	DefaultLoopInterval = 10 * time.Millisecond

	// DefaultBufferSeconds is the inlet retention window.
	DefaultBufferSeconds = 10

	// DefaultOutputFolder is where CSV files land unless configured.
	DefaultOutputFolder = "./logs"
)

// Config holds recorder configuration.
type Config struct {
	// Predicate filters discovered streams, e.g. "type='EEG'". Empty
	// records everything.
	Predicate string `json:"predicate"`

	// BufferSeconds sizes each inlet's retention buffer.
	BufferSeconds int `json:"buffer_seconds"`

	// SplitMetadata selects the two-file CSV layout.
	SplitMetadata bool `json:"split_metadata"`

	// OutputFolder is where session files are created. It must exist.
	OutputFolder string `json:"output_folder"`

	// LoopInterval is the pause between Run passes. Zero means
	// DefaultLoopInterval.
	LoopInterval time.Duration `json:"loop_interval"`
}

// DefaultConfig returns the recorder defaults.
func DefaultConfig() Config {
	return Config{
		BufferSeconds: DefaultBufferSeconds,
		OutputFolder:  DefaultOutputFolder,
		LoopInterval:  DefaultLoopInterval,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.BufferSeconds <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"buffer_seconds must be positive")
	}
	if c.OutputFolder == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"output_folder is required")
	}
	if c.LoopInterval < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"loop_interval cannot be negative")
	}
	if _, err := predicate.Compile(c.Predicate); err != nil {
		return err
	}
	return nil
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the recorder's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics attaches the shared metrics registry.
func WithMetrics(registry *metric.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.metrics = registry.CoreMetrics()
		}
	}
}

// WithRowSink attaches a sink receiving every drained row, e.g. the live
// monitor.
func WithRowSink(sink RowSink) Option {
	return func(r *Recorder) {
		r.sink = sink
	}
}

// Recorder follows discovered streams and writes their samples to CSV
// sessions. It supports two driving modes: the blocking Run loop, or
// caller-driven scheduling via StartRecording/Step/StopRecording. Both go
// through the same internal step.
type Recorder struct {
	config    Config
	transport lsl.Transport
	logger    *slog.Logger
	metrics   *metric.Metrics
	sink      RowSink

	pred     *predicate.Predicate
	registry *KnownStreams

	mu          sync.Mutex
	session     *Session
	initialized bool
	started     bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// New creates a recorder over a transport. Call Initialize before use.
func New(config Config, transport lsl.Transport, opts ...Option) *Recorder {
	r := &Recorder{
		config:    config,
		transport: transport,
		logger:    slog.Default().With("component", "recorder"),
		registry:  NewKnownStreams(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metric.NewMetrics()
	}
	return r
}

// Initialize validates configuration and compiles the stream predicate.
func (r *Recorder) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Recorder", "Initialize",
			"already initialized")
	}
	if r.transport == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Recorder", "Initialize",
			"transport is required")
	}

	if r.config.BufferSeconds == 0 {
		r.config.BufferSeconds = DefaultBufferSeconds
	}
	if r.config.OutputFolder == "" {
		r.config.OutputFolder = DefaultOutputFolder
	}
	if r.config.LoopInterval == 0 {
		r.config.LoopInterval = DefaultLoopInterval
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	pred, err := predicate.Compile(r.config.Predicate)
	if err != nil {
		return err
	}
	r.pred = pred

	if pred.IsMatchAll() {
		r.logger.Info("recording all streams")
	} else {
		r.logger.Info("filtering streams", "predicate", pred.String())
	}

	r.initialized = true
	return nil
}

// Start launches the Run loop in the background. Part of the managed
// component lifecycle; interactive callers can use Run directly.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if !r.initialized {
		r.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted, "Recorder", "Start", "not initialized")
	}
	if r.started {
		r.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Recorder", "Start", "already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.started = true
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		if err := r.Run(runCtx); err != nil {
			r.logger.Error("recorder loop failed", "error", err)
		}
	}()

	return nil
}

// Stop cancels the background loop and waits for it up to timeout.
func (r *Recorder) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted, "Recorder", "Stop", "not started")
	}
	cancel := r.cancel
	done := r.done
	r.started = false
	r.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(timeout):
		return errors.WrapTransient(errors.ErrAlreadyStopped, "Recorder", "Stop",
			"loop did not stop within timeout")
	}

	r.registry.closeAll()
	return nil
}

// Run starts a session and loops until the context is cancelled, then
// stops the session. Blocking; a clean cancellation is not an error.
func (r *Recorder) Run(ctx context.Context) error {
	if err := r.StartRecording(); err != nil {
		return err
	}

	ticker := time.NewTicker(r.config.LoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return r.StopRecording()
		case <-ticker.C:
			r.step()
		}
	}
}

// StartRecording opens a new session. The registry is reconciled first so
// the session's metadata covers every stream known at start. Starting
// while already recording is a reported no-op.
func (r *Recorder) StartRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return errors.WrapInvalid(errors.ErrNotStarted, "Recorder", "StartRecording",
			"not initialized")
	}
	if r.session != nil {
		return errors.WrapInvalid(errors.ErrAlreadyRecording, "Recorder", "StartRecording",
			"a session is already active")
	}

	r.reconcile(nil)

	session, err := newSession(r.config.OutputFolder, r.config.SplitMetadata, r.logger, r.metrics)
	if err != nil {
		return err
	}

	for _, info := range r.registry.Infos() {
		if err := session.writeMetadata(info); err != nil {
			r.logger.Warn("metadata write failed", "stream", info.String(), "error", err)
		}
	}

	r.session = session
	r.metrics.RecordSessionStarted()
	r.metrics.RecordRecordingState(true)
	return nil
}

// StopRecording closes the active session. Stopping while idle is a
// reported no-op; previously written rows are preserved either way.
func (r *Recorder) StopRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return errors.WrapInvalid(errors.ErrNotRecording, "Recorder", "StopRecording",
			"no active session")
	}

	err := r.session.Close()
	r.session = nil
	r.metrics.RecordRecordingState(false)
	return err
}

// Recording reports whether a session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// Session returns the active session, nil when idle.
func (r *Recorder) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Step runs one loop pass for caller-driven scheduling: reconcile the
// stream set, then drain into the session if one is active.
func (r *Recorder) Step() {
	r.step()
}

// step is the single loop body shared by Run and Step.
func (r *Recorder) step() {
	r.mu.Lock()
	session := r.session
	r.mu.Unlock()

	r.reconcile(session)

	if session != nil {
		r.drain(session)
	}
}
