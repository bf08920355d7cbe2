package timeline

import "github.com/cbegin/avsync-go/internal/easing"

// Window is the span in which manual triggers are accepted: after playback
// has started and before it has ended.
type Window struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

func (w Window) Contains(t float64) bool { return t > w.Start && t < w.End }

// Trigger gates a manually fired phase of length Active. A fire is rejected
// while the previous one is active, within Cooldown after it finished, and
// outside the playback window. All times come from the playback clock.
type Trigger struct {
	Active   float64
	Cooldown float64

	fired bool
	at    float64
}

// Ready reports whether Fire would accept t.
func (g *Trigger) Ready(t float64, w Window) bool {
	if !w.Contains(t) {
		return false
	}
	if !g.fired || t < g.at {
		return true
	}
	return t >= g.at+g.Active+g.Cooldown
}

// Fire records a trigger at t if Ready; it reports whether it was accepted.
func (g *Trigger) Fire(t float64, w Window) bool {
	if !g.Ready(t, w) {
		return false
	}
	g.fired = true
	g.at = t
	return true
}

// Last returns the time of the last accepted fire.
func (g *Trigger) Last() (float64, bool) { return g.at, g.fired }

func (g *Trigger) Reset() {
	g.fired = false
	g.at = 0
}

// Handoff interpolates from a value captured when a phase was left to a live
// target, so the next phase starts exactly where the previous one ended.
type Handoff struct {
	From     float64
	Start    float64
	Duration float64
	Ease     easing.Func
}

func (h Handoff) Progress(t float64) float64 {
	if h.Duration <= 0 {
		return 1
	}
	return h.Ease.Apply((t - h.Start) / h.Duration)
}

// Value blends the captured From value toward target.
func (h Handoff) Value(t, target float64) float64 {
	return easing.Lerp(h.From, target, h.Progress(t))
}

func (h Handoff) Done(t float64) bool { return t >= h.Start+h.Duration }
