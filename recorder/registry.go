package recorder

import (
	"fmt"
	"sync"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl"
)

// streamEntry pairs a stream's descriptor with its open inlet.
type streamEntry struct {
	info  lsl.StreamInfo
	inlet lsl.Inlet
}

// KnownStreams is the registry of streams the recorder currently follows.
// It holds exactly one entry per stream UID; insertion of a duplicate and
// removal of an unknown UID are both errors rather than silent overwrites.
type KnownStreams struct {
	mu      sync.RWMutex
	streams map[string]streamEntry
}

// NewKnownStreams creates an empty registry.
func NewKnownStreams() *KnownStreams {
	return &KnownStreams{
		streams: make(map[string]streamEntry),
	}
}

// Add inserts a stream with its inlet. The UID must not already be present.
func (ks *KnownStreams) Add(info lsl.StreamInfo, inlet lsl.Inlet) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if _, exists := ks.streams[info.UID]; exists {
		return errors.WrapInvalid(errors.ErrStreamDuplicate, "KnownStreams", "Add",
			fmt.Sprintf("uid %s", info.UID))
	}

	ks.streams[info.UID] = streamEntry{info: info, inlet: inlet}
	return nil
}

// Remove takes a stream out of the registry and returns its entry so the
// caller can close the inlet.
func (ks *KnownStreams) Remove(uid string) (lsl.StreamInfo, lsl.Inlet, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	entry, exists := ks.streams[uid]
	if !exists {
		return lsl.StreamInfo{}, nil, errors.WrapInvalid(errors.ErrStreamUnknown,
			"KnownStreams", "Remove", fmt.Sprintf("uid %s", uid))
	}

	delete(ks.streams, uid)
	return entry.info, entry.inlet, nil
}

// Contains reports whether a UID is in the registry.
func (ks *KnownStreams) Contains(uid string) bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	_, exists := ks.streams[uid]
	return exists
}

// UIDs returns the UIDs currently in the registry.
func (ks *KnownStreams) UIDs() []string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	uids := make([]string, 0, len(ks.streams))
	for uid := range ks.streams {
		uids = append(uids, uid)
	}
	return uids
}

// Len returns the number of streams in the registry.
func (ks *KnownStreams) Len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.streams)
}

// Infos returns a snapshot of the descriptors in the registry.
func (ks *KnownStreams) Infos() []lsl.StreamInfo {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	infos := make([]lsl.StreamInfo, 0, len(ks.streams))
	for _, entry := range ks.streams {
		infos = append(infos, entry.info)
	}
	return infos
}

// each visits every entry. Callers must not mutate the registry from the
// visitor.
func (ks *KnownStreams) each(visit func(streamEntry)) {
	ks.mu.RLock()
	entries := make([]streamEntry, 0, len(ks.streams))
	for _, entry := range ks.streams {
		entries = append(entries, entry)
	}
	ks.mu.RUnlock()

	for _, entry := range entries {
		visit(entry)
	}
}

// closeAll removes every stream and closes its inlet. Used on shutdown.
func (ks *KnownStreams) closeAll() {
	ks.mu.Lock()
	entries := ks.streams
	ks.streams = make(map[string]streamEntry)
	ks.mu.Unlock()

	for _, entry := range entries {
		if entry.inlet != nil {
			_ = entry.inlet.Close()
		}
	}
}
