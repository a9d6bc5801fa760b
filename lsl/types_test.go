package lsl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBufferCapacity(t *testing.T) {
	tests := []struct {
		name     string
		info     StreamInfo
		seconds  int
		expected int
	}{
		{"regular rate", StreamInfo{NominalSRate: 256}, 10, 2560},
		{"irregular rate uses 100/s", StreamInfo{NominalSRate: 0}, 10, 1000},
		{"one second", StreamInfo{NominalSRate: 512}, 1, 512},
		{"zero seconds clamps to one", StreamInfo{NominalSRate: 256}, 0, 256},
		{"negative seconds clamps to one", StreamInfo{}, -5, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BufferCapacity(tt.info, tt.seconds))
		})
	}
}

func TestPullStatus_String(t *testing.T) {
	assert.Equal(t, "ok", PullOK.String())
	assert.Equal(t, "empty", PullEmpty.String())
	assert.Equal(t, "lost", PullLost.String())
	assert.Equal(t, "unknown", PullStatus(42).String())
}

func TestStreamInfo_String(t *testing.T) {
	info := StreamInfo{UID: "u1", Name: "BioSemi", Type: "EEG", Hostname: "labpc"}
	assert.Equal(t, "BioSemi/EEG@labpc (u1)", info.String())
}

func TestLocalClock_Monotonic(t *testing.T) {
	a := LocalClock()
	time.Sleep(2 * time.Millisecond)
	b := LocalClock()
	assert.Greater(t, b, a)
}
