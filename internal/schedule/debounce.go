package schedule

import "time"

// DefaultResizeDelay coalesces resize storms before buffers are rebuilt.
const DefaultResizeDelay = 250 * time.Millisecond

// Debouncer holds a single pending deadline. Every Trigger pushes the
// deadline out; Due fires once when the main loop passes it. It runs on the
// main loop's wall clock so re-initialisation never races a tick.
type Debouncer struct {
	Delay time.Duration

	deadline time.Duration
	pending  bool
}

func (d *Debouncer) Trigger(now time.Duration) {
	d.deadline = now + d.Delay
	d.pending = true
}

// Due reports whether the pending deadline has passed and clears it.
func (d *Debouncer) Due(now time.Duration) bool {
	if !d.pending || now < d.deadline {
		return false
	}
	d.pending = false
	return true
}
