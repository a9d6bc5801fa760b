package natsbridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl"
)

// DefaultAnnounceInterval is how often an outlet re-announces its stream.
// It must stay well under the resolver's forget-after window.
const DefaultAnnounceInterval = 1 * time.Second

// Outlet publishes one stream: a periodic announcement plus a sample feed.
// It is the producing counterpart of the bridge and exists mainly for
// tools and tests that need to put streams on the wire.
type Outlet struct {
	nc       *nats.Conn
	ownsConn bool
	info     lsl.StreamInfo
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	closed   bool
	announce []byte
}

// OutletOption configures an outlet.
type OutletOption func(*Outlet)

// WithAnnounceInterval overrides the announcement period.
func WithAnnounceInterval(d time.Duration) OutletOption {
	return func(o *Outlet) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithOutletLogger sets the outlet's logger.
func WithOutletLogger(logger *slog.Logger) OutletOption {
	return func(o *Outlet) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewStreamInfo builds a descriptor for a new outlet, generating the UID
// and filling the hostname.
func NewStreamInfo(name, streamType, sourceID string, nominalRate float64) lsl.StreamInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return lsl.StreamInfo{
		UID:         uuid.New().String(),
		Name:        name,
		Type:        streamType,
		Hostname:    hostname,
		SourceID:    sourceID,
		NominalSRate: nominalRate,
	}
}

// DialOutlet connects to the broker and starts announcing the stream.
func DialOutlet(ctx context.Context, url string, info lsl.StreamInfo, opts ...OutletOption) (*Outlet, error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Outlet", "DialOutlet", "NATS URL is required")
	}

	nc, err := nats.Connect(url, nats.Timeout(DefaultConnectTimeout))
	if err != nil {
		return nil, errors.WrapTransient(err, "Outlet", "DialOutlet", "connect to NATS")
	}

	outlet, err := NewOutlet(ctx, nc, info, opts...)
	if err != nil {
		nc.Close()
		return nil, err
	}
	outlet.ownsConn = true
	return outlet, nil
}

// NewOutlet starts an outlet over an existing connection. The connection is
// not closed by Close.
func NewOutlet(ctx context.Context, nc *nats.Conn, info lsl.StreamInfo, opts ...OutletOption) (*Outlet, error) {
	if info.UID == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Outlet", "NewOutlet", "stream uid is required")
	}

	payload, err := json.Marshal(info)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Outlet", "NewOutlet", "encode stream info")
	}

	o := &Outlet{
		nc:       nc,
		info:     info,
		interval: DefaultAnnounceInterval,
		logger:   slog.Default().With("component", "outlet"),
		announce: payload,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	go o.announceLoop(runCtx)

	o.logger.Info("outlet started",
		"uid", info.UID,
		"name", info.Name,
		"type", info.Type,
		"announce_interval", o.interval)

	return o, nil
}

// Info returns the advertised descriptor.
func (o *Outlet) Info() lsl.StreamInfo {
	return o.info
}

// announceLoop republishes the stream descriptor until the context ends.
func (o *Outlet) announceLoop(ctx context.Context) {
	defer close(o.done)

	subject := announceSubject(o.info.UID)

	// Publish once immediately so the stream is discoverable right away.
	if err := o.nc.Publish(subject, o.announce); err != nil {
		o.logger.Warn("announce publish failed", "uid", o.info.UID, "error", err)
	}

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.nc.Publish(subject, o.announce); err != nil {
				o.logger.Warn("announce publish failed", "uid", o.info.UID, "error", err)
			}
		}
	}
}

// Push publishes one sample. A zero timestamp is stamped with the local
// clock before sending.
func (o *Outlet) Push(sample lsl.Sample) error {
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Outlet", "Push", "outlet closed")
	}

	if sample.Timestamp == 0 {
		sample.Timestamp = lsl.LocalClock()
	}

	payload, err := json.Marshal(sample)
	if err != nil {
		return errors.WrapInvalid(err, "Outlet", "Push", "encode sample")
	}
	if err := o.nc.Publish(dataSubject(o.info.UID), payload); err != nil {
		return errors.WrapTransient(err, "Outlet", "Push", "publish sample")
	}
	return nil
}

// Close stops announcing. Safe to call twice.
func (o *Outlet) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	<-o.done

	if o.ownsConn {
		o.nc.Close()
	}

	o.logger.Info("outlet stopped", "uid", o.info.UID)
	return nil
}
