package schedule

import (
	"sync"
	"time"
)

// GateState is the phase of one action kind.
type GateState int

const (
	// Idle accepts a new submission.
	Idle GateState = iota
	// InFlight has a submission outstanding.
	InFlight
	// Cooldown briefly refuses resubmission after a completion.
	Cooldown
)

func (s GateState) String() string {
	switch s {
	case InFlight:
		return "in_flight"
	case Cooldown:
		return "cooldown"
	default:
		return "idle"
	}
}

// Clock supplies the current time.
type Clock func() time.Time

// Gate is the Idle -> InFlight -> Cooldown -> Idle machine for one kind of
// submission. Completion drives the transitions; the safety timeout only
// releases a submission whose completion never arrived.
type Gate struct {
	mu       sync.Mutex
	now      Clock
	safety   time.Duration
	cooldown time.Duration

	state GateState
	since time.Time
	until time.Time
	seq   uint64
}

// NewGate builds a gate. A zero safety disables the timeout net.
func NewGate(safety, cooldown time.Duration, now Clock) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{now: now, safety: safety, cooldown: cooldown}
}

// State reports the current phase after applying elapsed timeouts.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.advanceLocked()
	return g.state
}

// Begin moves the gate to InFlight. It returns false when a submission is
// already outstanding or cooling down. The returned done func must be called
// when the submission completes, whether it succeeded or not; a call arriving
// after a safety release is ignored.
func (g *Gate) Begin() (done func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.advanceLocked()
	if g.state != Idle {
		return func() {}, false
	}
	g.seq++
	seq := g.seq
	g.state = InFlight
	g.since = g.now()
	return func() { g.finish(seq) }, true
}

func (g *Gate) finish(seq uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.seq || g.state != InFlight {
		return
	}
	if g.cooldown <= 0 {
		g.state = Idle
		return
	}
	g.state = Cooldown
	g.until = g.now().Add(g.cooldown)
}

func (g *Gate) advanceLocked() {
	now := g.now()
	switch g.state {
	case InFlight:
		if g.safety > 0 && now.Sub(g.since) >= g.safety {
			g.state = Idle
		}
	case Cooldown:
		if !now.Before(g.until) {
			g.state = Idle
		}
	}
}

// Flag is a one-shot marker, such as "item add in progress", that clears
// itself after ttl if nobody clears it first.
type Flag struct {
	mu    sync.Mutex
	now   Clock
	ttl   time.Duration
	set   bool
	since time.Time
}

// NewFlag builds a self-resetting flag.
func NewFlag(ttl time.Duration, now Clock) *Flag {
	if now == nil {
		now = time.Now
	}
	return &Flag{now: now, ttl: ttl}
}

// TrySet raises the flag and reports whether it was down.
func (f *Flag) TrySet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activeLocked() {
		return false
	}
	f.set = true
	f.since = f.now()
	return true
}

// Clear lowers the flag.
func (f *Flag) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = false
}

// Active reports whether the flag is raised and not yet expired.
func (f *Flag) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeLocked()
}

func (f *Flag) activeLocked() bool {
	if f.set && f.ttl > 0 && f.now().Sub(f.since) >= f.ttl {
		f.set = false
	}
	return f.set
}
