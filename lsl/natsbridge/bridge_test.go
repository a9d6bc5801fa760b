package natsbridge

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UlloLabs/LSL2Logs/lsl"
	"github.com/UlloLabs/LSL2Logs/pkg/buffer"
)

func testBridge(t *testing.T, forgetAfter time.Duration) *Bridge {
	t.Helper()
	b, err := newBridge(nil, Config{URL: "nats://test", ForgetAfter: forgetAfter},
		slog.Default(), nil)
	require.NoError(t, err)
	return b
}

func announcePayload(t *testing.T, info lsl.StreamInfo) []byte {
	t.Helper()
	data, err := json.Marshal(info)
	require.NoError(t, err)
	return data
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{URL: "nats://localhost:4222"}, false},
		{"valid with window", Config{URL: "nats://localhost:4222", ForgetAfter: 10 * time.Second}, false},
		{"missing url", Config{}, true},
		{"negative window", Config{URL: "nats://localhost:4222", ForgetAfter: -time.Second}, true},
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

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotEmpty(t, cfg.URL)
	assert.Equal(t, DefaultForgetAfter, cfg.ForgetAfter)
	assert.NoError(t, cfg.Validate())
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "lsl.announce.abc", announceSubject("abc"))
	assert.Equal(t, "lsl.data.abc", dataSubject("abc"))
}

func TestProcessAnnouncement(t *testing.T) {
	b := testBridge(t, 0)

	info := lsl.StreamInfo{
		UID:         "uid-1",
		Name:        "openbci",
		Type:        "EEG",
		Hostname:    "lab-pc",
		NominalSRate: 250,
	}
	b.processAnnouncement(announcePayload(t, info))

	results := b.Results()
	require.Len(t, results, 1)
	assert.Equal(t, info, results[0])
}

func TestProcessAnnouncementReplacesInfo(t *testing.T) {
	b := testBridge(t, 0)

	info := lsl.StreamInfo{UID: "uid-1", Name: "first"}
	b.processAnnouncement(announcePayload(t, info))

	info.Name = "renamed"
	b.processAnnouncement(announcePayload(t, info))

	results := b.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "renamed", results[0].Name)
}

func TestProcessAnnouncementRejectsGarbage(t *testing.T) {
	b := testBridge(t, 0)

	b.processAnnouncement([]byte("not json"))
	b.processAnnouncement(announcePayload(t, lsl.StreamInfo{Name: "no uid"}))

	assert.Empty(t, b.Results())
}

func TestResultsForgetsStaleStreams(t *testing.T) {
	b := testBridge(t, 5*time.Second)

	base := time.Now()
	b.now = func() time.Time { return base }

	b.processAnnouncement(announcePayload(t, lsl.StreamInfo{UID: "fresh"}))
	b.processAnnouncement(announcePayload(t, lsl.StreamInfo{UID: "stale"}))

	// advance past the window, then re-announce only one stream
	b.now = func() time.Time { return base.Add(6 * time.Second) }
	b.processAnnouncement(announcePayload(t, lsl.StreamInfo{UID: "fresh"}))

	results := b.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "fresh", results[0].UID)

	// stale entry is pruned, not just hidden
	b.mu.RLock()
	_, exists := b.seen["stale"]
	b.mu.RUnlock()
	assert.False(t, exists)
}

func TestBridgeClose(t *testing.T) {
	b := testBridge(t, 0)
	b.processAnnouncement(announcePayload(t, lsl.StreamInfo{UID: "uid-1"}))

	require.NoError(t, b.Close())
	assert.True(t, b.isClosed())
	assert.Empty(t, b.Results())

	_, err := b.OpenInlet(lsl.StreamInfo{UID: "uid-1"}, 10)
	assert.Error(t, err)

	// second close is a no-op
	assert.NoError(t, b.Close())
}

func TestInletOnData(t *testing.T) {
	b := testBridge(t, 0)

	info := lsl.StreamInfo{UID: "uid-1", NominalSRate: 100}
	ring, err := buffer.NewRing[lsl.Sample](10)
	require.NoError(t, err)
	in := &inlet{bridge: b, info: info, ring: ring}

	sample := lsl.Sample{Values: []float64{1.5, 2.5}, Timestamp: 42.0}
	payload, err := json.Marshal(sample)
	require.NoError(t, err)

	in.onData(&nats.Msg{Data: payload})
	in.onData(&nats.Msg{Data: []byte("garbage")})

	got, ok := in.ring.Read()
	require.True(t, ok)
	assert.Equal(t, sample, got)
	assert.True(t, in.ring.IsEmpty())
}

func TestNewStreamInfo(t *testing.T) {
	a := NewStreamInfo("hr", "HR", "polar-1", 1.0)
	b := NewStreamInfo("hr", "HR", "polar-1", 1.0)

	assert.NotEmpty(t, a.UID)
	assert.NotEqual(t, a.UID, b.UID)
	assert.Equal(t, "hr", a.Name)
	assert.Equal(t, "HR", a.Type)
	assert.Equal(t, "polar-1", a.SourceID)
	assert.Equal(t, 1.0, a.NominalSRate)
	assert.NotEmpty(t, a.Hostname)
}
