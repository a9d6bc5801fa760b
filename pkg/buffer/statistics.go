package buffer

import "sync/atomic"

// Statistics is a snapshot of buffer activity counters.
type Statistics struct {
	Writes    int64 // total successful writes
	Reads     int64 // total successful reads
	Overflows int64 // items discarded by the overflow policy
	Size      int64 // size at snapshot time
	MaxSize   int64 // high-water mark
}

// statistics tracks buffer activity with atomic counters.
type statistics struct {
	writes    atomic.Int64
	reads     atomic.Int64
	overflows atomic.Int64
	size      atomic.Int64
	maxSize   atomic.Int64
}

func (s *statistics) write(size int64) {
	s.writes.Add(1)
	s.updateSize(size)
}

func (s *statistics) read(size int64) {
	s.reads.Add(1)
	s.updateSize(size)
}

func (s *statistics) overflow() {
	s.overflows.Add(1)
}

func (s *statistics) updateSize(size int64) {
	s.size.Store(size)
	for {
		max := s.maxSize.Load()
		if size <= max || s.maxSize.CompareAndSwap(max, size) {
			return
		}
	}
}

func (s *statistics) snapshot() Statistics {
	return Statistics{
		Writes:    s.writes.Load(),
		Reads:     s.reads.Load(),
		Overflows: s.overflows.Load(),
		Size:      s.size.Load(),
		MaxSize:   s.maxSize.Load(),
	}
}
