package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/metric"
	"github.com/UlloLabs/LSL2Logs/pkg/buffer"
	"github.com/UlloLabs/LSL2Logs/recorder"
)

const (
	// DefaultPath is the WebSocket endpoint path.
	DefaultPath = "/tail"

	// clientQueueSize bounds the per-client send queue. A client further
	// behind than this loses oldest rows first.
	clientQueueSize = 256

	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
	pongTimeout  = 60 * time.Second
)

// Config holds monitor configuration.
type Config struct {
	// Port is the HTTP listen port for the WebSocket endpoint.
	Port int `json:"port"`

	// Path is the endpoint path. Empty means DefaultPath.
	Path string `json:"path"`
}

// DefaultConfig returns the monitor defaults.
func DefaultConfig() Config {
	return Config{
		Port: 8081,
		Path: DefaultPath,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("invalid port %d", c.Port))
	}
	return nil
}

// monitorMetrics holds Prometheus metrics for the monitor.
type monitorMetrics struct {
	clientsConnected prometheus.Gauge
	rowsBroadcast    prometheus.Counter
	rowsDropped      prometheus.Counter
}

func newMonitorMetrics(registry *metric.Registry) (*monitorMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &monitorMetrics{
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lsl2logs",
			Subsystem: "monitor",
			Name:      "clients_connected",
			Help:      "Number of currently connected live-tail clients",
		}),
		rowsBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lsl2logs",
			Subsystem: "monitor",
			Name:      "rows_broadcast_total",
			Help:      "Total rows broadcast to clients",
		}),
		rowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lsl2logs",
			Subsystem: "monitor",
			Name:      "rows_dropped_total",
			Help:      "Total rows dropped on slow client queues",
		}),
	}

	if err := registry.RegisterGauge("monitor", "clients_connected", m.clientsConnected); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("monitor", "rows_broadcast", m.rowsBroadcast); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("monitor", "rows_dropped", m.rowsDropped); err != nil {
		return nil, err
	}

	return m, nil
}

// client is one connected WebSocket consumer with its send queue.
type client struct {
	conn  *websocket.Conn
	queue buffer.Buffer[[]byte]
	wake  chan struct{}
	once  sync.Once
	gone  chan struct{}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.gone)
		_ = c.conn.Close()
	})
}

// notify signals the writer goroutine that the queue has data.
func (c *client) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Monitor is the WebSocket live-tail server.
type Monitor struct {
	config   Config
	logger   *slog.Logger
	metrics  *monitorMetrics
	registry *metric.Registry
	upgrader websocket.Upgrader

	mu          sync.Mutex
	clients     map[*client]struct{}
	server      *http.Server
	initialized bool
	started     bool
}

var _ recorder.RowSink = (*Monitor)(nil)

// New creates a monitor. registry may be nil to disable metrics.
func New(config Config, logger *slog.Logger, registry *metric.Registry) *Monitor {
	if logger == nil {
		logger = slog.Default().With("component", "monitor")
	}
	return &Monitor{
		config:   config,
		logger:   logger,
		registry: registry,
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// local observation tool, no origin restriction
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Initialize validates configuration and registers metrics.
func (m *Monitor) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Monitor", "Initialize", "already initialized")
	}

	if m.config.Path == "" {
		m.config.Path = DefaultPath
	}
	if err := m.config.Validate(); err != nil {
		return err
	}

	metrics, err := newMonitorMetrics(m.registry)
	if err != nil {
		return errors.Wrap(err, "Monitor", "Initialize", "register metrics")
	}
	m.metrics = metrics

	m.initialized = true
	return nil
}

// Start launches the HTTP server in the background.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return errors.WrapInvalid(errors.ErrNotStarted, "Monitor", "Start", "not initialized")
	}
	if m.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Monitor", "Start", "already started")
	}

	mux := http.NewServeMux()
	mux.HandleFunc(m.config.Path, m.handleTail)

	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", m.config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	m.started = true

	go func() {
		m.logger.Info("live tail listening",
			"port", m.config.Port,
			"path", m.config.Path)
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("live tail server failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = m.Stop(5 * time.Second)
	}()

	return nil
}

// Stop shuts the server down and disconnects all clients.
func (m *Monitor) Stop(timeout time.Duration) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted, "Monitor", "Stop", "not started")
	}
	m.started = false
	server := m.server
	clients := make([]*client, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.clients = make(map[*client]struct{})
	m.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Monitor", "Stop", "server shutdown")
	}
	return nil
}

// Publish queues one row for broadcast. Never blocks; slow clients lose
// their oldest queued rows.
func (m *Monitor) Publish(row recorder.Row) {
	payload, err := json.Marshal(row)
	if err != nil {
		m.logger.Warn("row encode failed", "error", err)
		return
	}

	m.mu.Lock()
	clients := make([]*client, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		_ = c.queue.Write(payload)
		c.notify()
	}

	if m.metrics != nil && len(clients) > 0 {
		m.metrics.rowsBroadcast.Inc()
	}
}

// ClientCount returns the number of connected clients.
func (m *Monitor) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// handleTail upgrades a connection and streams rows to it.
func (m *Monitor) handleTail(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	queue, err := buffer.NewRing[[]byte](clientQueueSize,
		buffer.WithOverflowPolicy[[]byte](buffer.DropOldest),
		buffer.WithDropCallback[[]byte](func([]byte) {
			if m.metrics != nil {
				m.metrics.rowsDropped.Inc()
			}
		}),
	)
	if err != nil {
		_ = conn.Close()
		return
	}

	c := &client{
		conn:  conn,
		queue: queue,
		wake:  make(chan struct{}, 1),
		gone:  make(chan struct{}),
	}

	m.mu.Lock()
	m.clients[c] = struct{}{}
	count := len(m.clients)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.clientsConnected.Set(float64(count))
	}
	m.logger.Info("live tail client connected", "remote", r.RemoteAddr, "clients", count)

	go m.readLoop(c)
	go m.writeLoop(c)
}

// removeClient drops a client from the set and closes it.
func (m *Monitor) removeClient(c *client) {
	m.mu.Lock()
	_, present := m.clients[c]
	delete(m.clients, c)
	count := len(m.clients)
	m.mu.Unlock()

	c.close()
	_ = c.queue.Close()

	if present {
		if m.metrics != nil {
			m.metrics.clientsConnected.Set(float64(count))
		}
		m.logger.Info("live tail client disconnected", "clients", count)
	}
}

// readLoop consumes control frames until the peer goes away. Rows flow one
// way; any data frame from the client is discarded.
func (m *Monitor) readLoop(c *client) {
	defer m.removeClient(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop drains the client queue to the connection and pings it.
func (m *Monitor) writeLoop(c *client) {
	defer m.removeClient(c)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.gone:
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.wake:
			for {
				payload, ok := c.queue.Read()
				if !ok {
					break
				}
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}
		}
	}
}
