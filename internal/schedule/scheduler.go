package schedule

import (
	"sync/atomic"

	"github.com/cbegin/avsync-go/internal/clock"
)

// Driver is one animation driver. Update does the full work for a tick and
// is only called when the driver's gate admits the tick; skipped ticks leave
// the previous visual state in place.
type Driver interface {
	Update(f *clock.Frame)
	// Reset returns the driver to its t=0 state for replay.
	Reset()
	// Resync rebuilds phase-exit state after a jump to t.
	Resync(t float64)
}

type entry struct {
	name string
	d    Driver
	gate Gate
	runs uint64
}

// Scheduler runs registered drivers once per tick in registration order.
// It is single-threaded: Tick, Reset and Resync must be called from the
// main loop. Stop may be called from any goroutine.
type Scheduler struct {
	entries []*entry
	stopped atomic.Bool
}

func New() *Scheduler { return &Scheduler{} }

// Register appends d with its own gate.
func (s *Scheduler) Register(name string, d Driver, g Gate) {
	s.entries = append(s.entries, &entry{name: name, d: d, gate: g})
}

// Tick runs every driver whose gate admits f and returns how many ran.
func (s *Scheduler) Tick(f *clock.Frame) int {
	if s.stopped.Load() {
		return 0
	}
	ran := 0
	for _, e := range s.entries {
		if !e.gate.Allow(f) {
			continue
		}
		e.d.Update(f)
		e.runs++
		ran++
	}
	return ran
}

// Stop halts all drivers cooperatively; the next Tick is a no-op.
func (s *Scheduler) Stop()         { s.stopped.Store(true) }
func (s *Scheduler) Stopped() bool { return s.stopped.Load() }

// Reset zeroes every driver and gate.
func (s *Scheduler) Reset() {
	for _, e := range s.entries {
		e.gate.Reset()
		e.runs = 0
		e.d.Reset()
	}
}

// Resync tells every driver the clock jumped to t.
func (s *Scheduler) Resync(t float64) {
	for _, e := range s.entries {
		e.d.Resync(t)
	}
}

// Runs reports how many full updates the named driver has done.
func (s *Scheduler) Runs(name string) uint64 {
	for _, e := range s.entries {
		if e.name == name {
			return e.runs
		}
	}
	return 0
}

// Names lists registered drivers in run order.
func (s *Scheduler) Names() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.name
	}
	return out
}
