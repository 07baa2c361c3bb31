package schedule

import (
	"sync"
	"time"
)

// DefaultFrame approximates one rendering frame.
const DefaultFrame = 16 * time.Millisecond

// FrameThrottle collapses every call made within one frame into a single
// call with the latest arguments, issued at the end of that frame.
type FrameThrottle[T any] struct {
	mu      sync.Mutex
	frame   time.Duration
	fn      func(T)
	pending bool
	latest  T
	timer   *time.Timer
}

// NewFrameThrottle returns a throttle running fn at most once per frame.
func NewFrameThrottle[T any](frame time.Duration, fn func(T)) *FrameThrottle[T] {
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &FrameThrottle[T]{frame: frame, fn: fn}
}

// Call schedules fn for the end of the current frame with v, superseding any
// arguments already queued in this frame.
func (f *FrameThrottle[T]) Call(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = v
	if f.pending {
		return
	}
	f.pending = true
	f.timer = time.AfterFunc(f.frame, f.run)
}

// Flush runs a queued call immediately.
func (f *FrameThrottle[T]) Flush() {
	f.run()
}

// Cancel drops a queued call.
func (f *FrameThrottle[T]) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.pending = false
}

func (f *FrameThrottle[T]) run() {
	f.mu.Lock()
	if !f.pending {
		f.mu.Unlock()
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	v := f.latest
	f.pending = false
	f.mu.Unlock()
	f.fn(v)
}
