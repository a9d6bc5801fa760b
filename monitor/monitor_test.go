package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UlloLabs/LSL2Logs/recorder"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Port: 8081, Path: "/tail"}, false},
		{"zero port", Config{Port: 0}, true},
		{"port too large", Config{Port: 70000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitializeDefaultsPath(t *testing.T) {
	m := New(Config{Port: 8081}, slog.Default(), nil)
	require.NoError(t, m.Initialize())
	assert.Equal(t, DefaultPath, m.config.Path)

	// double initialize is rejected
	assert.Error(t, m.Initialize())
}

func TestPublishWithoutClients(t *testing.T) {
	m := New(DefaultConfig(), slog.Default(), nil)
	require.NoError(t, m.Initialize())

	// must not panic or block
	m.Publish(recorder.Row{UID: "uid-1"})
	assert.Equal(t, 0, m.ClientCount())
}

func TestLiveTailBroadcast(t *testing.T) {
	m := New(DefaultConfig(), slog.Default(), nil)
	require.NoError(t, m.Initialize())

	server := httptest.NewServer(http.HandlerFunc(m.handleTail))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool {
		return m.ClientCount() == 1
	}, time.Second, time.Millisecond)

	want := recorder.Row{
		UID:             "eeg-1",
		Name:            "openbci",
		Type:            "EEG",
		TimestampSample: 12.5,
		Values:          []float64{1.5, 2.5},
	}
	m.Publish(want)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got recorder.Row
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, want.UID, got.UID)
	assert.Equal(t, want.Values, got.Values)
}

func TestClientDisconnectIsNoticed(t *testing.T) {
	m := New(DefaultConfig(), slog.Default(), nil)
	require.NoError(t, m.Initialize())

	server := httptest.NewServer(http.HandlerFunc(m.handleTail))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool {
		return m.ClientCount() == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return m.ClientCount() == 0
	}, time.Second, time.Millisecond)
}

func TestStartStopLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = freePort(t)

	m := New(cfg, slog.Default(), nil)
	require.NoError(t, m.Initialize())

	assert.Error(t, m.Stop(time.Second), "stop before start is rejected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))
	assert.Error(t, m.Start(ctx), "double start is rejected")

	url := fmt.Sprintf("ws://127.0.0.1:%d%s", cfg.Port, cfg.Path)
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		c, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return false
		}
		resp.Body.Close()
		conn = c
		return true
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()

	require.NoError(t, m.Stop(time.Second))

	// server is gone afterwards
	_, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
