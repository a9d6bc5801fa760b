package natsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl"
	"github.com/UlloLabs/LSL2Logs/metric"
)

const (
	// AnnounceSubject is the wildcard subscription for stream announcements.
	AnnounceSubject = "lsl.announce.>"

	// DefaultForgetAfter is how long a stream stays visible after its last
	// announcement.
	DefaultForgetAfter = 5 * time.Second

	// DefaultConnectTimeout bounds the initial broker connection.
	DefaultConnectTimeout = 10 * time.Second
)

// announceSubject returns the announce subject for one stream.
func announceSubject(uid string) string {
	return "lsl.announce." + uid
}

// dataSubject returns the sample subject for one stream.
func dataSubject(uid string) string {
	return "lsl.data." + uid
}

// Config holds bridge configuration.
type Config struct {
	// URL is the NATS server URL (e.g. "nats://localhost:4222").
	URL string `json:"url"`

	// ForgetAfter is the staleness window for announcements. Zero means
	// DefaultForgetAfter.
	ForgetAfter time.Duration `json:"forget_after"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "NATS URL is required")
	}
	if c.ForgetAfter < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "forget_after cannot be negative")
	}
	return nil
}

// DefaultConfig returns sensible defaults for the bridge.
func DefaultConfig() Config {
	return Config{
		URL:         nats.DefaultURL,
		ForgetAfter: DefaultForgetAfter,
	}
}

// bridgeMetrics holds Prometheus metrics for the bridge.
type bridgeMetrics struct {
	announcements   prometheus.Counter
	samplesReceived prometheus.Counter
	streamsVisible  prometheus.Gauge
}

func newBridgeMetrics(registry *metric.Registry) (*bridgeMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &bridgeMetrics{
		announcements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lsl2logs",
			Subsystem: "natsbridge",
			Name:      "announcements_total",
			Help:      "Total stream announcements received",
		}),
		samplesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lsl2logs",
			Subsystem: "natsbridge",
			Name:      "samples_received_total",
			Help:      "Total samples received across all inlets",
		}),
		streamsVisible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lsl2logs",
			Subsystem: "natsbridge",
			Name:      "streams_visible",
			Help:      "Streams currently within the forget-after window",
		}),
	}

	if err := registry.RegisterCounter("natsbridge", "announcements", m.announcements); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("natsbridge", "samples_received", m.samplesReceived); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("natsbridge", "streams_visible", m.streamsVisible); err != nil {
		return nil, err
	}

	return m, nil
}

// announcement tracks one advertised stream and when it was last seen.
type announcement struct {
	info     lsl.StreamInfo
	lastSeen time.Time
}

// Bridge implements lsl.Transport over a NATS connection.
type Bridge struct {
	nc          *nats.Conn
	logger      *slog.Logger
	metrics     *bridgeMetrics
	forgetAfter time.Duration

	mu     sync.RWMutex
	seen   map[string]announcement
	sub    *nats.Subscription
	closed bool

	// now is injectable for staleness tests
	now func() time.Time
}

var _ lsl.Transport = (*Bridge)(nil)

// Dial connects to the broker and starts listening for announcements.
// registry may be nil to disable metrics.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger, registry *metric.Registry) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default().With("component", "natsbridge")
	}

	timeout := DefaultConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(false),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.WrapTransient(err, "Bridge", "Dial", "connect to NATS")
	}

	b, err := newBridge(nc, cfg, logger, registry)
	if err != nil {
		nc.Close()
		return nil, err
	}

	if err := b.subscribeAnnouncements(); err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("NATS bridge connected",
		"url", cfg.URL,
		"forget_after", b.forgetAfter)

	return b, nil
}

// newBridge wires a bridge around an existing connection. Split from Dial
// so resolver bookkeeping is testable without a broker.
func newBridge(nc *nats.Conn, cfg Config, logger *slog.Logger, registry *metric.Registry) (*Bridge, error) {
	forgetAfter := cfg.ForgetAfter
	if forgetAfter == 0 {
		forgetAfter = DefaultForgetAfter
	}

	metrics, err := newBridgeMetrics(registry)
	if err != nil {
		return nil, errors.Wrap(err, "Bridge", "newBridge", "register metrics")
	}

	return &Bridge{
		nc:          nc,
		logger:      logger,
		metrics:     metrics,
		forgetAfter: forgetAfter,
		seen:        make(map[string]announcement),
		now:         time.Now,
	}, nil
}

// subscribeAnnouncements starts the announce wildcard subscription.
func (b *Bridge) subscribeAnnouncements() error {
	sub, err := b.nc.Subscribe(AnnounceSubject, func(msg *nats.Msg) {
		b.processAnnouncement(msg.Data)
	})
	if err != nil {
		return errors.WrapTransient(err, "Bridge", "subscribeAnnouncements", "subscribe")
	}
	b.sub = sub
	return nil
}

// processAnnouncement records one announcement payload.
func (b *Bridge) processAnnouncement(data []byte) {
	var info lsl.StreamInfo
	if err := json.Unmarshal(data, &info); err != nil {
		b.logger.Warn("dropping malformed announcement", "error", err)
		return
	}
	if info.UID == "" {
		b.logger.Warn("dropping announcement without uid", "name", info.Name)
		return
	}

	b.mu.Lock()
	_, known := b.seen[info.UID]
	b.seen[info.UID] = announcement{info: info, lastSeen: b.now()}
	visible := len(b.seen)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.announcements.Inc()
		b.metrics.streamsVisible.Set(float64(visible))
	}

	if !known {
		b.logger.Debug("stream announced",
			"uid", info.UID,
			"name", info.Name,
			"type", info.Type,
			"hostname", info.Hostname)
	}
}

// Results returns the streams announced within the forget-after window.
func (b *Bridge) Results() []lsl.StreamInfo {
	cutoff := b.now().Add(-b.forgetAfter)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	var results []lsl.StreamInfo
	for uid, ann := range b.seen {
		if ann.lastSeen.Before(cutoff) {
			delete(b.seen, uid)
			continue
		}
		results = append(results, ann.info)
	}

	if b.metrics != nil {
		b.metrics.streamsVisible.Set(float64(len(results)))
	}

	return results
}

// OpenInlet subscribes to a stream's data subject.
func (b *Bridge) OpenInlet(info lsl.StreamInfo, bufferSeconds int) (lsl.Inlet, error) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()

	if closed {
		return nil, errors.WrapInvalid(errors.ErrResolverClosed, "Bridge", "OpenInlet", "bridge closed")
	}

	inlet, err := newInlet(b, info, bufferSeconds)
	if err != nil {
		return nil, errors.Wrap(errors.ErrSubscriptionFailed, "Bridge", "OpenInlet",
			fmt.Sprintf("stream %s: %v", info.UID, err))
	}
	return inlet, nil
}

// Close shuts the bridge down. Open inlets report PullLost afterwards.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sub := b.sub
	b.sub = nil
	b.seen = make(map[string]announcement)
	b.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn("announce unsubscribe failed", "error", err)
		}
	}
	if b.nc != nil {
		b.nc.Close()
	}

	b.logger.Info("NATS bridge closed")
	return nil
}

// isClosed reports whether Close has been called.
func (b *Bridge) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
