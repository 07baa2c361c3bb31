package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/schedule"
)

const (
	// DefaultDebounce is the draft write window.
	DefaultDebounce = 300 * time.Millisecond
	// MaxDebounce bounds the window so an abrupt navigation loses at most a
	// moment of typing.
	MaxDebounce = time.Second

	writeTimeout = 2 * time.Second
)

// Mirror writes draft changes to the port after a quiet period. Writes are
// serialized and a snapshot older than one already written, or observed
// before a Discard, is dropped.
type Mirror struct {
	port     *Port
	debounce *schedule.Debouncer[observed]

	seq   atomic.Uint64
	mu    sync.Mutex // held for the whole port write
	floor uint64
}

type observed struct {
	state draft.State
	seq   uint64
}

// NewMirror builds a mirror with the given window, clamped to MaxDebounce.
func NewMirror(port *Port, window time.Duration) *Mirror {
	if window <= 0 {
		window = DefaultDebounce
	}
	if window > MaxDebounce {
		window = MaxDebounce
	}
	m := &Mirror{port: port}
	m.debounce = schedule.NewDebouncer(window, m.write)
	return m
}

// Observe is a draft.Listener.
func (m *Mirror) Observe(st draft.State) {
	m.debounce.Trigger(observed{state: st, seq: m.seq.Add(1)})
}

// Pending reports whether a write is scheduled.
func (m *Mirror) Pending() bool {
	return m.debounce.Pending()
}

// Flush writes a scheduled snapshot now.
func (m *Mirror) Flush() {
	m.debounce.Flush()
}

// Discard drops a scheduled snapshot, used right before the draft is cleared.
// It waits for a write already under way, and everything observed so far is
// never written afterwards.
func (m *Mirror) Discard() {
	m.debounce.Cancel()
	m.mu.Lock()
	m.floor = m.seq.Load()
	m.mu.Unlock()
}

// Close flushes and stops the mirror.
func (m *Mirror) Close() {
	m.debounce.Flush()
	m.debounce.Stop()
}

func (m *Mirror) write(o observed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.seq <= m.floor {
		return
	}
	m.floor = o.seq
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	m.port.SaveDraft(ctx, o.state)
}
