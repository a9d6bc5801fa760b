package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.class.String())
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"stream lost", ErrStreamLost, true},
		{"connection lost", ErrConnectionLost, true},
		{"subscription failed", ErrSubscriptionFailed, true},
		{"context canceled", context.Canceled, true},
		{"wrapped stream lost", fmt.Errorf("drain: %w", ErrStreamLost), true},
		{"classified transient", WrapTransient(New("boom"), "Drainer", "Drain", "pull"), true},
		{"classified invalid", WrapInvalid(New("timeout-ish text"), "Registry", "Add", "validate"), false},
		{"message pattern", New("dial tcp: i/o timeout"), true},
		{"plain invalid", ErrInvalidPredicate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.True(t, IsFatal(ErrInvalidConfig))
	assert.True(t, IsFatal(ErrOutputUnavailable))
	assert.True(t, IsFatal(WrapFatal(New("boom"), "Session", "Open", "create file")))
	assert.True(t, IsFatal(New("write /data: disk full")))
	assert.False(t, IsFatal(ErrStreamLost))
}

func TestIsInvalid(t *testing.T) {
	assert.False(t, IsInvalid(nil))
	assert.True(t, IsInvalid(ErrInvalidPredicate))
	assert.True(t, IsInvalid(ErrStreamDuplicate))
	assert.True(t, IsInvalid(WrapInvalid(New("boom"), "Predicate", "Parse", "tokenize")))
	assert.False(t, IsInvalid(ErrStreamLost))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorTransient, Classify(nil))
	assert.Equal(t, ErrorTransient, Classify(ErrStreamLost))
	assert.Equal(t, ErrorFatal, Classify(ErrOutputUnavailable))
	assert.Equal(t, ErrorInvalid, Classify(ErrStreamDuplicate))
	// Unknown errors default to transient so the loop keeps going
	assert.Equal(t, ErrorTransient, Classify(New("mystery")))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "Recorder", "Start", "open session"))

	err := Wrap(ErrStreamLost, "Drainer", "Drain", "pull sample")
	require.Error(t, err)
	assert.Equal(t, "Drainer.Drain: pull sample failed: stream lost", err.Error())
	assert.True(t, Is(err, ErrStreamLost))
}

func TestWrapClassified(t *testing.T) {
	base := New("boom")

	err := WrapTransient(base, "Bridge", "Pull", "read buffer")
	require.Error(t, err)

	var ce *ClassifiedError
	require.True(t, As(err, &ce))
	assert.Equal(t, ErrorTransient, ce.Class)
	assert.Equal(t, "Bridge", ce.Component)
	assert.Equal(t, "Pull", ce.Operation)
	assert.True(t, Is(err, base))

	assert.NoError(t, WrapTransient(nil, "Bridge", "Pull", "read buffer"))
	assert.NoError(t, WrapFatal(nil, "Bridge", "Pull", "read buffer"))
	assert.NoError(t, WrapInvalid(nil, "Bridge", "Pull", "read buffer"))
}

func TestClassifiedError_Error(t *testing.T) {
	ce := &ClassifiedError{Class: ErrorFatal, Err: New("underlying")}
	assert.Equal(t, "underlying", ce.Error())

	ce.Message = "session open failed"
	assert.Equal(t, "session open failed", ce.Error())
}
